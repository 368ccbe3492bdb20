// Package profiles runs engine transitions against a profile store:
// read, transform, compare-and-set write, and retry on lost races.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"

	"github.com/pavelanni/codequest/internal/model"
	"github.com/pavelanni/codequest/internal/progress"
)

// RetryPolicy bounds how often a conflicting write is re-applied.
type RetryPolicy struct {
	MaxRetries uint
	Delay      time.Duration
}

// DefaultRetryPolicy is used when the caller passes a zero policy.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 5, Delay: 10 * time.Millisecond}

// Service owns the read-modify-write cycle for learner profiles.
type Service struct {
	store  Store
	engine *progress.Engine
	retry  RetryPolicy
}

var _ progress.ProfileStore = Store(nil)

// New creates a Service. A zero policy means DefaultRetryPolicy; jitter
// needs a positive delay, so a non-positive one becomes a millisecond.
func New(store Store, engine *progress.Engine, policy RetryPolicy) *Service {
	if policy == (RetryPolicy{}) {
		policy = DefaultRetryPolicy
	}
	if policy.Delay <= 0 {
		policy.Delay = time.Millisecond
	}
	return &Service{store: store, engine: engine, retry: policy}
}

// Engine returns the engine the service applies.
func (s *Service) Engine() *progress.Engine {
	return s.engine
}

// Get returns the stored profile, or a default one for a learner who has
// never been seen. The default is not persisted.
func (s *Service) Get(ctx context.Context, userID string) (model.LearnerProfile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, progress.ErrProfileNotFound) {
		return s.engine.NewProfile(userID), nil
	}
	if err != nil {
		return model.LearnerProfile{}, fmt.Errorf("get profile: %w", err)
	}
	return s.engine.ClampHearts(p), nil
}

// MutateFunc transforms a profile. It may run more than once when writes
// race, so it must not have side effects beyond its return values.
type MutateFunc func(model.LearnerProfile) (model.LearnerProfile, error)

// Mutate reads the learner's profile (a default one if missing), applies fn
// and writes the result. A lost race re-runs the whole cycle with backoff.
// Errors returned by fn are passed through unchanged and never retried.
func (s *Service) Mutate(ctx context.Context, userID string, fn MutateFunc) (model.LearnerProfile, error) {
	var out model.LearnerProfile
	err := retry.Do(
		func() error {
			cur, err := s.store.GetProfile(ctx, userID)
			if errors.Is(err, progress.ErrProfileNotFound) {
				cur = s.engine.NewProfile(userID)
			} else if err != nil {
				return retry.Unrecoverable(fmt.Errorf("get profile: %w", err))
			}

			next, err := fn(cur)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			next = s.engine.ClampHearts(next)
			next.UserID = userID
			next.Version = cur.Version

			stored, err := s.store.PutProfile(ctx, userID, next)
			if errors.Is(err, progress.ErrStoreConflict) {
				return err
			}
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("put profile: %w", err))
			}
			out = stored
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(s.retry.MaxRetries+1),
		retry.Delay(s.retry.Delay),
		retry.MaxJitter(s.retry.Delay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Debug("retrying profile write", "user_id", userID, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		if errors.Is(err, progress.ErrStoreConflict) {
			slog.Warn("giving up on profile write", "user_id", userID, "retries", s.retry.MaxRetries)
		}
		return model.LearnerProfile{}, err
	}
	return out, nil
}

// List returns every stored profile without attempt history.
func (s *Service) List(ctx context.Context) ([]model.LearnerProfile, error) {
	return s.store.ListProfiles(ctx)
}

// Marks returns the learner's problem marks.
func (s *Service) Marks(ctx context.Context, userID string) (map[string]model.ProblemMark, error) {
	return s.store.GetMarks(ctx, userID)
}

// SetMark stores a learner's star and notes for a problem.
func (s *Service) SetMark(ctx context.Context, userID, problemID string, m model.ProblemMark) error {
	return s.store.SetMark(ctx, userID, problemID, m)
}

// Export collects every learner with full history and marks.
func (s *Service) Export(ctx context.Context) (model.ProfileExport, error) {
	list, err := s.store.ListProfiles(ctx)
	if err != nil {
		return model.ProfileExport{}, fmt.Errorf("list profiles: %w", err)
	}

	out := model.ProfileExport{ExportedAt: s.engine.Now().UTC()}
	for _, p := range list {
		full, err := s.store.GetProfile(ctx, p.UserID)
		if err != nil {
			return model.ProfileExport{}, fmt.Errorf("get profile %s: %w", p.UserID, err)
		}
		marks, err := s.store.GetMarks(ctx, p.UserID)
		if err != nil {
			return model.ProfileExport{}, fmt.Errorf("get marks %s: %w", p.UserID, err)
		}
		if len(marks) == 0 {
			marks = nil
		}
		out.Learners = append(out.Learners, model.LearnerExport{Profile: full, Marks: marks})
	}
	out.Count = len(out.Learners)
	return out, nil
}
