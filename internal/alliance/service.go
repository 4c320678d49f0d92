// Package alliance runs live alliance-selection bookkeeping: seating
// captains, recording picks in serpentine round order, and tracking which
// teams remain available.
package alliance

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gridscout/internal/dataset"
	"gridscout/internal/logging"
	"gridscout/internal/store"
)

var (
	// ErrNotPickable means the team is not in a state the action allows.
	ErrNotPickable = errors.New("alliance: team is not pickable")
	// ErrCompleted means the selection has already finished.
	ErrCompleted = errors.New("alliance: selection is complete")
	// ErrNoCaptainTurn means no alliance is waiting for a pick right now.
	ErrNoCaptainTurn = errors.New("alliance: no alliance is on the clock")
)

const pickRounds = 3

// Service coordinates a selection. Picks run serpentine: round 1 goes
// alliance 1 through 8, round 2 back from 8 to 1, round 3 forward again.
type Service struct {
	store  *store.Store
	repo   *dataset.Repository
	logger *zap.Logger
}

// NewService creates an alliance selection service.
func NewService(st *store.Store, repo *dataset.Repository) *Service {
	return &Service{store: st, repo: repo, logger: logging.Get(logging.CategoryStore)}
}

// Create starts a selection for an event, seeding the team pool from the
// event's dataset.
func (s *Service) Create(ctx context.Context, eventKey string) (*store.AllianceSelection, error) {
	ds, err := s.repo.Load(eventKey)
	if err != nil {
		return nil, err
	}
	teams := ds.TeamNumbers()
	if len(teams) == 0 {
		return nil, fmt.Errorf("dataset for %s has no teams", eventKey)
	}
	return s.store.CreateSelection(ctx, eventKey, teams)
}

// Get loads a selection by ID.
func (s *Service) Get(ctx context.Context, id int64) (*store.AllianceSelection, error) {
	return s.store.GetSelection(ctx, id)
}

// Captain seats a team as captain of an alliance. Declined teams may still
// captain; picked teams and existing captains may not.
func (s *Service) Captain(ctx context.Context, selectionID int64, allianceNumber, team int) (*store.AllianceSelection, error) {
	sel, err := s.store.GetSelection(ctx, selectionID)
	if err != nil {
		return nil, err
	}
	if allianceNumber < 1 || allianceNumber > len(sel.Alliances) {
		return nil, fmt.Errorf("alliance number %d out of range", allianceNumber)
	}
	alliance := sel.Alliances[allianceNumber-1]
	if alliance.Captain != 0 {
		return nil, fmt.Errorf("alliance %d already has captain %d", allianceNumber, alliance.Captain)
	}
	switch sel.TeamStatuses[team] {
	case store.StatusAvailable, store.StatusDeclined:
	default:
		return nil, fmt.Errorf("%w: team %d is %s", ErrNotPickable, team, sel.TeamStatuses[team])
	}

	alliance.Captain = team
	if err := s.store.UpdateAlliance(ctx, alliance); err != nil {
		return nil, err
	}
	if err := s.store.SetTeamStatus(ctx, selectionID, team, store.StatusCaptain); err != nil {
		return nil, err
	}
	s.logger.Info("captain seated",
		zap.Int64("selection", selectionID),
		zap.Int("alliance", allianceNumber),
		zap.Int("team", team))
	return s.store.GetSelection(ctx, selectionID)
}

// Pick records the on-the-clock alliance taking a team. Only available
// teams may be picked.
func (s *Service) Pick(ctx context.Context, selectionID int64, team int) (*store.AllianceSelection, error) {
	sel, err := s.store.GetSelection(ctx, selectionID)
	if err != nil {
		return nil, err
	}
	if sel.Completed {
		return nil, ErrCompleted
	}
	if sel.TeamStatuses[team] != store.StatusAvailable {
		return nil, fmt.Errorf("%w: team %d is %s", ErrNotPickable, team, sel.TeamStatuses[team])
	}

	alliance, ok := onTheClock(sel)
	if !ok {
		return nil, ErrNoCaptainTurn
	}
	alliance.Picks = append(alliance.Picks, team)
	if err := s.store.UpdateAlliance(ctx, *alliance); err != nil {
		return nil, err
	}
	if err := s.store.SetTeamStatus(ctx, selectionID, team, store.StatusPicked); err != nil {
		return nil, err
	}
	if err := s.advanceRound(ctx, sel); err != nil {
		return nil, err
	}
	s.logger.Info("team picked",
		zap.Int64("selection", selectionID),
		zap.Int("alliance", alliance.Number),
		zap.Int("team", team),
		zap.Int("round", sel.CurrentRound))
	return s.store.GetSelection(ctx, selectionID)
}

// Decline marks a team as having declined an invitation. It can no longer
// be picked but may still become a captain.
func (s *Service) Decline(ctx context.Context, selectionID int64, team int) (*store.AllianceSelection, error) {
	sel, err := s.store.GetSelection(ctx, selectionID)
	if err != nil {
		return nil, err
	}
	if sel.TeamStatuses[team] != store.StatusAvailable {
		return nil, fmt.Errorf("%w: team %d is %s", ErrNotPickable, team, sel.TeamStatuses[team])
	}
	if err := s.store.SetTeamStatus(ctx, selectionID, team, store.StatusDeclined); err != nil {
		return nil, err
	}
	return s.store.GetSelection(ctx, selectionID)
}

// Remaining lists teams still available to be picked.
func (s *Service) Remaining(ctx context.Context, selectionID int64) ([]int, error) {
	return s.store.AvailableTeams(ctx, selectionID)
}

// Delete removes a selection and its draft state.
func (s *Service) Delete(ctx context.Context, selectionID int64) error {
	return s.store.DeleteSelection(ctx, selectionID)
}

// onTheClock returns the alliance whose turn it is in the current round,
// following serpentine order. An alliance with no captain is skipped.
func onTheClock(sel *store.AllianceSelection) (*store.Alliance, bool) {
	for _, idx := range roundOrder(sel.CurrentRound, len(sel.Alliances)) {
		a := &sel.Alliances[idx]
		if a.Captain == 0 {
			continue
		}
		if len(a.Picks) < sel.CurrentRound {
			return a, true
		}
	}
	return nil, false
}

// roundOrder yields alliance slice indices for a round: odd rounds run
// front to back, even rounds back to front.
func roundOrder(round, n int) []int {
	order := make([]int, n)
	for i := range order {
		if round%2 == 1 {
			order[i] = i
		} else {
			order[i] = n - 1 - i
		}
	}
	return order
}

// advanceRound moves to the next round once every seated alliance has its
// pick for the current one, and completes the selection after the last
// round. The passed selection is reloaded to see the pick just recorded.
func (s *Service) advanceRound(ctx context.Context, sel *store.AllianceSelection) error {
	cur, err := s.store.GetSelection(ctx, sel.ID)
	if err != nil {
		return err
	}
	if _, pending := onTheClock(cur); pending {
		return nil
	}
	if cur.CurrentRound >= pickRounds {
		return s.store.SetSelectionRound(ctx, cur.ID, cur.CurrentRound, true)
	}
	return s.store.SetSelectionRound(ctx, cur.ID, cur.CurrentRound+1, false)
}
