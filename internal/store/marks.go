package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pavelanni/codequest/internal/model"
)

// SetMark upserts the learner's star and notes for a problem.
func (s *Store) SetMark(ctx context.Context, userID, problemID string, m model.ProblemMark) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO problem_marks (user_id, problem_id, starred, notes, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, problem_id) DO UPDATE SET starred = ?, notes = ?, updated_at = ?`,
		userID, problemID, m.Starred, m.Notes, time.Now(), m.Starred, m.Notes, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("set mark %s/%s: %w", userID, problemID, err)
	}
	return nil
}

// GetMarks returns the learner's marks keyed by problem id.
func (s *Store) GetMarks(ctx context.Context, userID string) (map[string]model.ProblemMark, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT problem_id, starred, notes FROM problem_marks WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("get marks %s: %w", userID, err)
	}
	defer rows.Close()
	marks := make(map[string]model.ProblemMark)
	for rows.Next() {
		var (
			id string
			m  model.ProblemMark
		)
		if err := rows.Scan(&id, &m.Starred, &m.Notes); err != nil {
			return nil, err
		}
		marks[id] = m
	}
	return marks, rows.Err()
}
