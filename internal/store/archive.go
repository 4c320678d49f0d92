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

// ArchivedEvent is a frozen snapshot of everything GridScout held for an
// event. Data is the snapshot JSON produced by the archive service.
type ArchivedEvent struct {
	ID         int64           `json:"id"`
	EventKey   string          `json:"event_key"`
	Name       string          `json:"name,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	ArchivedAt time.Time       `json:"archived_at"`
}

// InsertArchive stores an event snapshot and returns its ID.
func (s *Store) InsertArchive(ctx context.Context, eventKey, name string, data json.RawMessage) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO archived_events (event_key, name, data) VALUES (?, ?, ?)`,
		eventKey, name, string(data))
	if err != nil {
		return 0, fmt.Errorf("failed to archive %s: %w", eventKey, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.logger.Info("event archived", zap.Int64("id", id), zap.String("event", eventKey))
	return id, nil
}

// GetArchive fetches one archived event including its snapshot.
func (s *Store) GetArchive(ctx context.Context, id int64) (*ArchivedEvent, error) {
	var ae ArchivedEvent
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, event_key, name, data, archived_at FROM archived_events WHERE id = ?`, id).
		Scan(&ae.ID, &ae.EventKey, &ae.Name, &data, &ae.ArchivedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load archive %d: %w", id, err)
	}
	ae.Data = json.RawMessage(data)
	return &ae, nil
}

// ListArchives returns archive metadata, newest first, without snapshots.
func (s *Store) ListArchives(ctx context.Context) ([]ArchivedEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_key, name, archived_at FROM archived_events ORDER BY archived_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list archives: %w", err)
	}
	defer rows.Close()

	var out []ArchivedEvent
	for rows.Next() {
		var ae ArchivedEvent
		if err := rows.Scan(&ae.ID, &ae.EventKey, &ae.Name, &ae.ArchivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan archive: %w", err)
		}
		out = append(out, ae)
	}
	return out, rows.Err()
}

// DeleteArchive removes an archived event.
func (s *Store) DeleteArchive(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM archived_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete archive %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
