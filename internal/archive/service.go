// Package archive freezes everything GridScout holds for an event into one
// snapshot row and restores it later: the unified dataset file, locked
// picklists, sheet configuration, and alliance-selection state.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gridscout/internal/dataset"
	"gridscout/internal/logging"
	"gridscout/internal/store"
)

// Snapshot is the archived-event payload. Fields are omitted when the event
// had no data of that kind.
type Snapshot struct {
	EventKey        string                   `json:"event_key"`
	Dataset         *dataset.Dataset         `json:"dataset,omitempty"`
	LockedPicklists []store.LockedPicklist   `json:"locked_picklists,omitempty"`
	SheetConfig     *store.SheetConfig       `json:"sheet_config,omitempty"`
	Selection       *store.AllianceSelection `json:"selection,omitempty"`
	ArchivedAt      time.Time                `json:"archived_at"`
}

// Service archives and restores events.
type Service struct {
	store  *store.Store
	repo   *dataset.Repository
	logger *zap.Logger
}

// NewService creates an archive service.
func NewService(st *store.Store, repo *dataset.Repository) *Service {
	return &Service{store: st, repo: repo, logger: logging.Get(logging.CategoryArchive)}
}

// Archive snapshots an event. The source data stays in place; archiving is
// a backup, not a purge.
func (s *Service) Archive(ctx context.Context, eventKey, name string) (*store.ArchivedEvent, error) {
	snapshot := Snapshot{EventKey: eventKey, ArchivedAt: time.Now().UTC()}

	if ds, err := s.repo.Load(eventKey); err == nil {
		snapshot.Dataset = ds
	} else if !errors.Is(err, dataset.ErrNoDataset) {
		return nil, err
	}

	locked, err := s.store.ListLockedPicklists(ctx, eventKey)
	if err != nil {
		return nil, err
	}
	snapshot.LockedPicklists = locked

	if cfg, err := s.store.GetSheetConfig(ctx, eventKey); err == nil {
		snapshot.SheetConfig = cfg
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if sel, err := s.store.GetSelectionByEvent(ctx, eventKey); err == nil {
		snapshot.Selection = sel
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if snapshot.Dataset == nil && len(snapshot.LockedPicklists) == 0 &&
		snapshot.SheetConfig == nil && snapshot.Selection == nil {
		return nil, fmt.Errorf("nothing to archive for event %s", eventKey)
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	id, err := s.store.InsertArchive(ctx, eventKey, name, data)
	if err != nil {
		return nil, err
	}
	return s.store.GetArchive(ctx, id)
}

// Restore writes an archived event's data back: the dataset file is
// rewritten and DB rows are re-created. Existing rows for the event are
// replaced.
func (s *Service) Restore(ctx context.Context, id int64) (*Snapshot, error) {
	ae, err := s.store.GetArchive(ctx, id)
	if err != nil {
		return nil, err
	}
	var snapshot Snapshot
	if err := json.Unmarshal(ae.Data, &snapshot); err != nil {
		return nil, fmt.Errorf("corrupt snapshot in archive %d: %w", id, err)
	}

	if snapshot.Dataset != nil {
		if err := s.repo.Save(snapshot.Dataset); err != nil {
			return nil, err
		}
	}
	// Replace the event's locked picklists so repeated restores don't stack
	// duplicates.
	if err := s.store.DeleteLockedPicklistsByEvent(ctx, snapshot.EventKey); err != nil {
		return nil, err
	}
	for _, lp := range snapshot.LockedPicklists {
		if _, err := s.store.LockPicklist(ctx, lp.EventKey, lp.Position, lp.Data); err != nil {
			return nil, err
		}
	}
	if snapshot.SheetConfig != nil {
		if err := s.store.UpsertSheetConfig(ctx, *snapshot.SheetConfig); err != nil {
			return nil, err
		}
	}
	if snapshot.Selection != nil {
		if err := s.restoreSelection(ctx, snapshot.Selection); err != nil {
			return nil, err
		}
	}

	s.logger.Info("event restored",
		zap.Int64("archive", id),
		zap.String("event", snapshot.EventKey))
	return &snapshot, nil
}

// List returns archive metadata, newest first.
func (s *Service) List(ctx context.Context) ([]store.ArchivedEvent, error) {
	return s.store.ListArchives(ctx)
}

// Delete removes an archive snapshot.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteArchive(ctx, id)
}

func (s *Service) restoreSelection(ctx context.Context, sel *store.AllianceSelection) error {
	if existing, err := s.store.GetSelectionByEvent(ctx, sel.EventKey); err == nil {
		if err := s.store.DeleteSelection(ctx, existing.ID); err != nil {
			return err
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	teams := make([]int, 0, len(sel.TeamStatuses))
	for team := range sel.TeamStatuses {
		teams = append(teams, team)
	}
	restored, err := s.store.CreateSelection(ctx, sel.EventKey, teams)
	if err != nil {
		return err
	}
	for _, a := range sel.Alliances {
		a.SelectionID = restored.ID
		if err := s.store.UpdateAlliance(ctx, a); err != nil {
			return err
		}
	}
	for team, status := range sel.TeamStatuses {
		if status == store.StatusAvailable {
			continue
		}
		if err := s.store.SetTeamStatus(ctx, restored.ID, team, status); err != nil {
			return err
		}
	}
	return s.store.SetSelectionRound(ctx, restored.ID, sel.CurrentRound, sel.Completed)
}
