package store

import (
	"fmt"

	"github.com/pavelanni/codequest/internal/model"
)

// ReplaceProblems swaps the stored catalog for ps, keeping their order.
func (s *Store) ReplaceProblems(ps []model.Problem) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM problems`); err != nil {
		return fmt.Errorf("clear problems: %w", err)
	}
	for i, p := range ps {
		_, err := tx.Exec(
			`INSERT INTO problems (id, position, title, category, difficulty) VALUES (?, ?, ?, ?, ?)`,
			p.ID, i, p.Title, p.Category, p.Difficulty,
		)
		if err != nil {
			return fmt.Errorf("insert problem %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// ListProblems returns the catalog in its authored order.
func (s *Store) ListProblems() ([]model.Problem, error) {
	rows, err := s.db.Query(`SELECT id, title, category, difficulty FROM problems ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var problems []model.Problem
	for rows.Next() {
		var p model.Problem
		if err := rows.Scan(&p.ID, &p.Title, &p.Category, &p.Difficulty); err != nil {
			return nil, err
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}
