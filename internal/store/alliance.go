package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// TeamStatus is a team's state during alliance selection.
type TeamStatus string

const (
	StatusAvailable TeamStatus = "available"
	StatusPicked    TeamStatus = "picked"
	StatusDeclined  TeamStatus = "declined"
	StatusCaptain   TeamStatus = "captain"
)

// AllianceSelection is one live alliance-selection session for an event.
type AllianceSelection struct {
	ID           int64              `json:"id"`
	EventKey     string             `json:"event_key"`
	CurrentRound int                `json:"current_round"`
	Completed    bool               `json:"completed"`
	CreatedAt    time.Time          `json:"created_at"`
	Alliances    []Alliance         `json:"alliances"`
	TeamStatuses map[int]TeamStatus `json:"team_statuses"`
}

// Alliance is one of the eight alliances in a selection.
type Alliance struct {
	ID          int64 `json:"id"`
	SelectionID int64 `json:"selection_id"`
	Number      int   `json:"number"`
	// Captain is 0 until a captain is seated.
	Captain int   `json:"captain"`
	Picks   []int `json:"picks"`
}

const allianceCount = 8

// CreateSelection starts a selection for an event with eight empty alliances
// and every team marked available. One selection per event.
func (s *Store) CreateSelection(ctx context.Context, eventKey string, teams []int) (*AllianceSelection, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO alliance_selections (event_key) VALUES (?)`, eventKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create selection for %s: %w", eventKey, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	for n := 1; n <= allianceCount; n++ {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO alliances (selection_id, number) VALUES (?, ?)`, id, n); err != nil {
			return nil, fmt.Errorf("failed to seed alliance %d: %w", n, err)
		}
	}
	for _, team := range teams {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO team_selection_status (selection_id, team_number, status) VALUES (?, ?, ?)`,
			id, team, StatusAvailable); err != nil {
			return nil, fmt.Errorf("failed to seed team %d: %w", team, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("alliance selection created",
		zap.Int64("id", id),
		zap.String("event", eventKey),
		zap.Int("teams", len(teams)))
	return s.GetSelection(ctx, id)
}

// GetSelection loads a selection with its alliances and team statuses.
func (s *Store) GetSelection(ctx context.Context, id int64) (*AllianceSelection, error) {
	sel := &AllianceSelection{ID: id, TeamStatuses: make(map[int]TeamStatus)}

	var completed int
	err := s.db.QueryRowContext(ctx,
		`SELECT event_key, current_round, completed, created_at FROM alliance_selections WHERE id = ?`, id).
		Scan(&sel.EventKey, &sel.CurrentRound, &completed, &sel.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load selection %d: %w", id, err)
	}
	sel.Completed = completed != 0

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, number, captain, picks FROM alliances WHERE selection_id = ? ORDER BY number`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load alliances: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		a := Alliance{SelectionID: id}
		var captain sql.NullInt64
		var picks string
		if err := rows.Scan(&a.ID, &a.Number, &captain, &picks); err != nil {
			return nil, fmt.Errorf("failed to scan alliance: %w", err)
		}
		if captain.Valid {
			a.Captain = int(captain.Int64)
		}
		if err := json.Unmarshal([]byte(picks), &a.Picks); err != nil {
			return nil, fmt.Errorf("corrupt picks for alliance %d: %w", a.Number, err)
		}
		sel.Alliances = append(sel.Alliances, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	statusRows, err := s.db.QueryContext(ctx,
		`SELECT team_number, status FROM team_selection_status WHERE selection_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load team statuses: %w", err)
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var team int
		var status string
		if err := statusRows.Scan(&team, &status); err != nil {
			return nil, fmt.Errorf("failed to scan team status: %w", err)
		}
		sel.TeamStatuses[team] = TeamStatus(status)
	}
	return sel, statusRows.Err()
}

// GetSelectionByEvent loads the selection for an event key.
func (s *Store) GetSelectionByEvent(ctx context.Context, eventKey string) (*AllianceSelection, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM alliance_selections WHERE event_key = ?`, eventKey).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find selection for %s: %w", eventKey, err)
	}
	return s.GetSelection(ctx, id)
}

// UpdateAlliance persists an alliance's captain and picks.
func (s *Store) UpdateAlliance(ctx context.Context, a Alliance) error {
	picks := a.Picks
	if picks == nil {
		picks = []int{}
	}
	data, err := json.Marshal(picks)
	if err != nil {
		return err
	}
	var captain interface{}
	if a.Captain != 0 {
		captain = a.Captain
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE alliances SET captain = ?, picks = ? WHERE selection_id = ? AND number = ?`,
		captain, string(data), a.SelectionID, a.Number)
	if err != nil {
		return fmt.Errorf("failed to update alliance %d: %w", a.Number, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTeamStatus updates one team's selection state.
func (s *Store) SetTeamStatus(ctx context.Context, selectionID int64, team int, status TeamStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE team_selection_status SET status = ? WHERE selection_id = ? AND team_number = ?`,
		status, selectionID, team)
	if err != nil {
		return fmt.Errorf("failed to set status for team %d: %w", team, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSelectionRound advances the round counter and completion flag.
func (s *Store) SetSelectionRound(ctx context.Context, selectionID int64, round int, completed bool) error {
	c := 0
	if completed {
		c = 1
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE alliance_selections SET current_round = ?, completed = ? WHERE id = ?`,
		round, c, selectionID)
	if err != nil {
		return fmt.Errorf("failed to update selection %d: %w", selectionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSelection removes a selection; alliances and statuses cascade.
func (s *Store) DeleteSelection(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alliance_selections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete selection %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AvailableTeams returns teams still pickable in a selection, sorted.
func (s *Store) AvailableTeams(ctx context.Context, selectionID int64) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT team_number FROM team_selection_status WHERE selection_id = ? AND status = ?`,
		selectionID, StatusAvailable)
	if err != nil {
		return nil, fmt.Errorf("failed to list available teams: %w", err)
	}
	defer rows.Close()

	var teams []int
	for rows.Next() {
		var t int
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	sort.Ints(teams)
	return teams, rows.Err()
}
