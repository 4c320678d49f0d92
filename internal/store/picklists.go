package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// LockedPicklist is a picklist frozen for competition day. Data holds the
// generated picklist JSON verbatim.
type LockedPicklist struct {
	ID        int64           `json:"id"`
	EventKey  string          `json:"event_key"`
	Position  string          `json:"position"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// LockPicklist inserts a locked picklist and returns its ID.
func (s *Store) LockPicklist(ctx context.Context, eventKey, position string, data json.RawMessage) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO locked_picklists (event_key, position, data) VALUES (?, ?, ?)`,
		eventKey, position, string(data))
	if err != nil {
		return 0, fmt.Errorf("failed to lock picklist: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.logger.Info("picklist locked",
		zap.Int64("id", id),
		zap.String("event", eventKey),
		zap.String("position", position))
	return id, nil
}

// GetLockedPicklist fetches one locked picklist by ID.
func (s *Store) GetLockedPicklist(ctx context.Context, id int64) (*LockedPicklist, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, event_key, position, data, created_at FROM locked_picklists WHERE id = ?`, id)
	return scanLockedPicklist(row)
}

// ListLockedPicklists returns locked picklists, newest first. eventKey
// filters when non-empty.
func (s *Store) ListLockedPicklists(ctx context.Context, eventKey string) ([]LockedPicklist, error) {
	query := `SELECT id, event_key, position, data, created_at FROM locked_picklists`
	args := []interface{}{}
	if eventKey != "" {
		query += ` WHERE event_key = ?`
		args = append(args, eventKey)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list locked picklists: %w", err)
	}
	defer rows.Close()

	var out []LockedPicklist
	for rows.Next() {
		lp, err := scanLockedPicklist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *lp)
	}
	return out, rows.Err()
}

// DeleteLockedPicklist removes a locked picklist.
func (s *Store) DeleteLockedPicklist(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM locked_picklists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete locked picklist: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteLockedPicklistsByEvent removes every locked picklist for an event.
// Deleting from an event with none is not an error.
func (s *Store) DeleteLockedPicklistsByEvent(ctx context.Context, eventKey string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM locked_picklists WHERE event_key = ?`, eventKey)
	if err != nil {
		return fmt.Errorf("failed to delete locked picklists for %s: %w", eventKey, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLockedPicklist(row rowScanner) (*LockedPicklist, error) {
	var lp LockedPicklist
	var data string
	err := row.Scan(&lp.ID, &lp.EventKey, &lp.Position, &data, &lp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan locked picklist: %w", err)
	}
	lp.Data = json.RawMessage(data)
	return &lp, nil
}
