package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GameManual is the stored rules text for one season.
type GameManual struct {
	Year      int       `json:"year"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertManual creates or replaces the manual for a season.
func (s *Store) UpsertManual(ctx context.Context, m GameManual) error {
	if m.Year == 0 {
		return fmt.Errorf("year is required")
	}
	if m.Content == "" {
		return fmt.Errorf("content is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO game_manuals (year, title, content, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(year) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			updated_at = CURRENT_TIMESTAMP`,
		m.Year, m.Title, m.Content)
	if err != nil {
		return fmt.Errorf("failed to save manual for %d: %w", m.Year, err)
	}
	return nil
}

// GetManual fetches the manual for a season.
func (s *Store) GetManual(ctx context.Context, year int) (*GameManual, error) {
	var m GameManual
	err := s.db.QueryRowContext(ctx,
		`SELECT year, title, content, updated_at FROM game_manuals WHERE year = ?`, year).
		Scan(&m.Year, &m.Title, &m.Content, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load manual for %d: %w", year, err)
	}
	return &m, nil
}
