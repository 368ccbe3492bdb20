// Package mongostore keeps learner profiles as MongoDB documents, one per
// learner, with attempt history and problem marks embedded.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pavelanni/codequest/internal/model"
	"github.com/pavelanni/codequest/internal/progress"
)

const collectionName = "profiles"

// Store is a ProfileStore backed by a MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New connects to uri and verifies the server is reachable.
func New(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	slog.Info("connected to mongo", "database", database)
	return &Store{client: client, coll: client.Database(database).Collection(collectionName)}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Drop removes the whole collection. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.coll.Drop(ctx)
}

type profileDoc struct {
	UserID              string                       `bson:"_id"`
	Hearts              int                          `bson:"hearts"`
	XP                  int                          `bson:"xp"`
	StreakCount         int                          `bson:"streak_count"`
	LastActivityDate    string                       `bson:"last_activity_date"`
	StreakFreezes       int                          `bson:"streak_freezes"`
	FreezeProtectedDate string                       `bson:"freeze_protected_date"`
	League              string                       `bson:"league"`
	LeagueXP            int                          `bson:"league_xp"`
	Timezone            string                       `bson:"timezone"`
	Attempts            []model.AttemptRecord        `bson:"attempts,omitempty"`
	Marks               map[string]model.ProblemMark `bson:"marks,omitempty"`
	Version             int64                        `bson:"version"`
	CreatedAt           time.Time                    `bson:"created_at"`
	UpdatedAt           time.Time                    `bson:"updated_at"`
}

func (d profileDoc) profile() (model.LearnerProfile, error) {
	p := model.LearnerProfile{
		UserID:        d.UserID,
		Hearts:        d.Hearts,
		XP:            d.XP,
		StreakCount:   d.StreakCount,
		StreakFreezes: d.StreakFreezes,
		League:        model.League(d.League),
		LeagueXP:      d.LeagueXP,
		Timezone:      d.Timezone,
		Attempts:      d.Attempts,
		Version:       d.Version,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	var err error
	if p.LastActivityDate, err = model.ParseDate(d.LastActivityDate); err != nil {
		return p, err
	}
	if p.FreezeProtectedDate, err = model.ParseDate(d.FreezeProtectedDate); err != nil {
		return p, err
	}
	return p, nil
}

// profileFields are the scalar fields a write replaces.
func profileFields(p model.LearnerProfile) bson.M {
	return bson.M{
		"hearts":                p.Hearts,
		"xp":                    p.XP,
		"streak_count":          p.StreakCount,
		"last_activity_date":    p.LastActivityDate.String(),
		"streak_freezes":        p.StreakFreezes,
		"freeze_protected_date": p.FreezeProtectedDate.String(),
		"league":                string(p.League),
		"league_xp":             p.LeagueXP,
		"timezone":              p.Timezone,
		"updated_at":            p.UpdatedAt.UTC(),
	}
}

// stored matches documents that hold a profile. A document created only
// by SetMark has no version yet.
func stored(userID string) bson.M {
	return bson.M{"_id": userID, "version": bson.M{"$gt": 0}}
}

// GetProfile returns the learner's document as a profile.
func (s *Store) GetProfile(ctx context.Context, userID string) (model.LearnerProfile, error) {
	var doc profileDoc
	err := s.coll.FindOne(ctx, stored(userID),
		options.FindOne().SetProjection(bson.M{"marks": 0})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.LearnerProfile{}, progress.ErrProfileNotFound
	}
	if err != nil {
		return model.LearnerProfile{}, fmt.Errorf("get profile %s: %w", userID, err)
	}
	return doc.profile()
}

// PutProfile writes p when the stored version still equals p.Version.
// Version 0 creates the profile. Only attempts with ids not yet stored are
// appended.
func (s *Store) PutProfile(ctx context.Context, userID string, p model.LearnerProfile) (model.LearnerProfile, error) {
	set := profileFields(p)
	var (
		filter bson.M
		fresh  []model.AttemptRecord
		opts   = options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"marks": 0})
	)

	if p.Version == 0 {
		filter = bson.M{"_id": userID, "version": bson.M{"$exists": false}}
		set["created_at"] = p.CreatedAt.UTC()
		set["version"] = int64(1)
		fresh = p.Attempts
		opts.SetUpsert(true)
	} else {
		filter = bson.M{"_id": userID, "version": p.Version}
		known, err := s.attemptIDs(ctx, filter)
		if err != nil {
			return p, err
		}
		for _, a := range p.Attempts {
			if _, ok := known[a.ID]; !ok {
				fresh = append(fresh, a)
			}
		}
	}

	update := bson.M{"$set": set}
	if p.Version != 0 {
		update["$inc"] = bson.M{"version": 1}
	}
	if len(fresh) > 0 {
		update["$push"] = bson.M{"attempts": bson.M{"$each": fresh}}
	}

	var doc profileDoc
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments), mongo.IsDuplicateKeyError(err):
		return p, progress.ErrStoreConflict
	case err != nil:
		slog.Error("failed to write profile", "user_id", userID, "error", err)
		return p, fmt.Errorf("write profile %s: %w", userID, err)
	}
	return doc.profile()
}

func (s *Store) attemptIDs(ctx context.Context, filter bson.M) (map[string]struct{}, error) {
	var doc struct {
		Attempts []struct {
			ID string `bson:"id"`
		} `bson:"attempts"`
	}
	err := s.coll.FindOne(ctx, filter,
		options.FindOne().SetProjection(bson.M{"attempts.id": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, progress.ErrStoreConflict
	}
	if err != nil {
		return nil, fmt.Errorf("read attempt ids: %w", err)
	}
	ids := make(map[string]struct{}, len(doc.Attempts))
	for _, a := range doc.Attempts {
		ids[a.ID] = struct{}{}
	}
	return ids, nil
}

// ListProfiles returns every stored profile without attempt history,
// ordered by user id.
func (s *Store) ListProfiles(ctx context.Context) ([]model.LearnerProfile, error) {
	cur, err := s.coll.Find(ctx, bson.M{"version": bson.M{"$gt": 0}},
		options.Find().
			SetSort(bson.D{{Key: "_id", Value: 1}}).
			SetProjection(bson.M{"attempts": 0, "marks": 0}))
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer cur.Close(ctx)

	var out []model.LearnerProfile
	for cur.Next(ctx) {
		var doc profileDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		p, err := doc.profile()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, cur.Err()
}

// SetMark stores the learner's star and notes for a problem. The learner
// need not have a profile yet.
func (s *Store) SetMark(ctx context.Context, userID, problemID string, m model.ProblemMark) error {
	if problemID == "" || strings.ContainsAny(problemID, ".$") {
		return fmt.Errorf("problem id %q cannot be used as a mark key", problemID)
	}
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"marks." + problemID: m}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set mark %s/%s: %w", userID, problemID, err)
	}
	return nil
}

// GetMarks returns the learner's marks keyed by problem id.
func (s *Store) GetMarks(ctx context.Context, userID string) (map[string]model.ProblemMark, error) {
	var doc struct {
		Marks map[string]model.ProblemMark `bson:"marks"`
	}
	err := s.coll.FindOne(ctx, bson.M{"_id": userID},
		options.FindOne().SetProjection(bson.M{"marks": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return map[string]model.ProblemMark{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get marks %s: %w", userID, err)
	}
	if doc.Marks == nil {
		doc.Marks = map[string]model.ProblemMark{}
	}
	return doc.Marks, nil
}
