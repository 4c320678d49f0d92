// Package store is GridScout's relational persistence layer: SQLite via
// database/sql for locked picklists, alliance selections, sheet
// configurations, archived events, and game manuals. Unified datasets live
// as JSON files in internal/dataset, not here.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"gridscout/internal/logging"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Store wraps the SQLite database.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens (creating if needed) the database at path and runs migrations.
// Pass ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite handles one writer; a single pooled connection avoids
	// SQLITE_BUSY churn and keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	logger := logging.Get(logging.CategoryStore)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logger.Debug("pragma failed", zap.String("pragma", pragma), zap.Error(err))
		}
	}

	s := &Store{db: db, path: path, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("store opened", zap.String("path", path))
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS locked_picklists (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	event_key   TEXT NOT NULL,
	position    TEXT NOT NULL,
	data        TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_locked_picklists_event ON locked_picklists(event_key);

CREATE TABLE IF NOT EXISTS alliance_selections (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	event_key     TEXT NOT NULL UNIQUE,
	current_round INTEGER NOT NULL DEFAULT 1,
	completed     INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS alliances (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	selection_id INTEGER NOT NULL REFERENCES alliance_selections(id) ON DELETE CASCADE,
	number       INTEGER NOT NULL,
	captain      INTEGER,
	picks        TEXT NOT NULL DEFAULT '[]',
	UNIQUE(selection_id, number)
);

CREATE TABLE IF NOT EXISTS team_selection_status (
	selection_id INTEGER NOT NULL REFERENCES alliance_selections(id) ON DELETE CASCADE,
	team_number  INTEGER NOT NULL,
	status       TEXT NOT NULL DEFAULT 'available',
	PRIMARY KEY (selection_id, team_number)
);

CREATE TABLE IF NOT EXISTS sheet_configs (
	event_key      TEXT PRIMARY KEY,
	spreadsheet_id TEXT NOT NULL,
	match_tab      TEXT NOT NULL DEFAULT '',
	super_tab      TEXT NOT NULL DEFAULT '',
	updated_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS archived_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	event_key   TEXT NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	data        TEXT NOT NULL,
	archived_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS game_manuals (
	year       INTEGER PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
