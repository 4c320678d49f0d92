package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SheetConfig maps an event to its scouting spreadsheet and tabs.
type SheetConfig struct {
	EventKey      string `json:"event_key"`
	SpreadsheetID string `json:"spreadsheet_id"`
	// MatchTab holds per-match scouting rows, SuperTab qualitative
	// superscouting notes.
	MatchTab  string    `json:"match_tab,omitempty"`
	SuperTab  string    `json:"super_tab,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertSheetConfig creates or replaces the sheet configuration for an event.
func (s *Store) UpsertSheetConfig(ctx context.Context, cfg SheetConfig) error {
	if cfg.EventKey == "" || cfg.SpreadsheetID == "" {
		return fmt.Errorf("event_key and spreadsheet_id are required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sheet_configs (event_key, spreadsheet_id, match_tab, super_tab, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(event_key) DO UPDATE SET
			spreadsheet_id = excluded.spreadsheet_id,
			match_tab = excluded.match_tab,
			super_tab = excluded.super_tab,
			updated_at = CURRENT_TIMESTAMP`,
		cfg.EventKey, cfg.SpreadsheetID, cfg.MatchTab, cfg.SuperTab)
	if err != nil {
		return fmt.Errorf("failed to save sheet config for %s: %w", cfg.EventKey, err)
	}
	return nil
}

// GetSheetConfig fetches the sheet configuration for an event.
func (s *Store) GetSheetConfig(ctx context.Context, eventKey string) (*SheetConfig, error) {
	var cfg SheetConfig
	err := s.db.QueryRowContext(ctx,
		`SELECT event_key, spreadsheet_id, match_tab, super_tab, updated_at
		 FROM sheet_configs WHERE event_key = ?`, eventKey).
		Scan(&cfg.EventKey, &cfg.SpreadsheetID, &cfg.MatchTab, &cfg.SuperTab, &cfg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sheet config for %s: %w", eventKey, err)
	}
	return &cfg, nil
}

// DeleteSheetConfig removes an event's sheet configuration.
func (s *Store) DeleteSheetConfig(ctx context.Context, eventKey string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sheet_configs WHERE event_key = ?`, eventKey)
	if err != nil {
		return fmt.Errorf("failed to delete sheet config for %s: %w", eventKey, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
