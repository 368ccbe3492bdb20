package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pavelanni/codequest/internal/model"
	"github.com/pavelanni/codequest/internal/progress"
)

const profileColumns = `user_id, hearts, xp, streak_count, last_activity_date, streak_freezes,
	freeze_protected_date, league, league_xp, timezone, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (model.LearnerProfile, error) {
	var (
		p                 model.LearnerProfile
		lastDay, frozeDay string
	)
	err := row.Scan(&p.UserID, &p.Hearts, &p.XP, &p.StreakCount, &lastDay, &p.StreakFreezes,
		&frozeDay, &p.League, &p.LeagueXP, &p.Timezone, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	if p.LastActivityDate, err = model.ParseDate(lastDay); err != nil {
		return p, err
	}
	if p.FreezeProtectedDate, err = model.ParseDate(frozeDay); err != nil {
		return p, err
	}
	return p, nil
}

// GetProfile returns the stored profile with its full attempt history.
func (s *Store) GetProfile(ctx context.Context, userID string) (model.LearnerProfile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.LearnerProfile{}, progress.ErrProfileNotFound
	}
	if err != nil {
		return model.LearnerProfile{}, fmt.Errorf("get profile %s: %w", userID, err)
	}
	if p.Attempts, err = s.attempts(ctx, s.db, userID); err != nil {
		return model.LearnerProfile{}, err
	}
	return p, nil
}

// PutProfile writes p when the stored version still equals p.Version.
// Version 0 creates the profile. Attempt records are appended; ids already
// stored are left as they are.
func (s *Store) PutProfile(ctx context.Context, userID string, p model.LearnerProfile) (model.LearnerProfile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return p, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	p.UserID = userID
	var res sql.Result
	if p.Version == 0 {
		res, err = tx.ExecContext(ctx,
			`INSERT INTO profiles (`+profileColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
			 ON CONFLICT(user_id) DO NOTHING`,
			userID, p.Hearts, p.XP, p.StreakCount, p.LastActivityDate.String(), p.StreakFreezes,
			p.FreezeProtectedDate.String(), p.League, p.LeagueXP, p.Timezone, p.CreatedAt, p.UpdatedAt,
		)
	} else {
		res, err = tx.ExecContext(ctx,
			`UPDATE profiles SET hearts = ?, xp = ?, streak_count = ?, last_activity_date = ?,
			 streak_freezes = ?, freeze_protected_date = ?, league = ?, league_xp = ?, timezone = ?,
			 version = version + 1, updated_at = ?
			 WHERE user_id = ? AND version = ?`,
			p.Hearts, p.XP, p.StreakCount, p.LastActivityDate.String(),
			p.StreakFreezes, p.FreezeProtectedDate.String(), p.League, p.LeagueXP, p.Timezone,
			p.UpdatedAt, userID, p.Version,
		)
	}
	if err != nil {
		slog.Error("failed to write profile", "user_id", userID, "error", err)
		return p, fmt.Errorf("write profile %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return p, err
	}
	if n == 0 {
		return p, progress.ErrStoreConflict
	}

	for _, a := range p.Attempts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO attempts (id, user_id, problem_id, outcome, created_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO NOTHING`,
			a.ID, userID, a.ProblemID, a.Outcome, a.Timestamp,
		)
		if err != nil {
			return p, fmt.Errorf("append attempt %s: %w", a.ID, err)
		}
	}

	stored, err := scanProfile(tx.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID))
	if err != nil {
		return p, fmt.Errorf("reload profile %s: %w", userID, err)
	}
	if stored.Attempts, err = s.attempts(ctx, tx, userID); err != nil {
		return p, err
	}
	if err := tx.Commit(); err != nil {
		return p, fmt.Errorf("commit: %w", err)
	}
	return stored, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) attempts(ctx context.Context, q querier, userID string) ([]model.AttemptRecord, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, problem_id, outcome, created_at FROM attempts WHERE user_id = ? ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts %s: %w", userID, err)
	}
	defer rows.Close()
	var out []model.AttemptRecord
	for rows.Next() {
		var a model.AttemptRecord
		if err := rows.Scan(&a.ID, &a.ProblemID, &a.Outcome, &a.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListProfiles returns every stored profile without attempt history,
// ordered by user id.
func (s *Store) ListProfiles(ctx context.Context) ([]model.LearnerProfile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()
	var out []model.LearnerProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
