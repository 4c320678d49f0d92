package archive

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridscout/internal/dataset"
	"gridscout/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store, *dataset.Repository) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	repo, err := dataset.NewRepository(t.TempDir())
	require.NoError(t, err)
	return NewService(st, repo), st, repo
}

func seedEvent(t *testing.T, st *store.Store, repo *dataset.Repository) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, repo.Save(&dataset.Dataset{
		EventKey: "2025casj",
		Year:     2025,
		Teams: map[string]*dataset.TeamEntry{
			"frc254":  {TeamNumber: 254, Nickname: "The Cheesy Poofs"},
			"frc1678": {TeamNumber: 1678},
		},
	}))

	_, err := st.LockPicklist(ctx, "2025casj", "first", json.RawMessage(`{"picklist":[]}`))
	require.NoError(t, err)

	require.NoError(t, st.UpsertSheetConfig(ctx, store.SheetConfig{
		EventKey:      "2025casj",
		SpreadsheetID: "1AbC",
		MatchTab:      "Match Data",
	}))

	sel, err := st.CreateSelection(ctx, "2025casj", []int{254, 1678})
	require.NoError(t, err)
	require.NoError(t, st.UpdateAlliance(ctx, store.Alliance{
		SelectionID: sel.ID, Number: 1, Captain: 254, Picks: []int{1678},
	}))
	require.NoError(t, st.SetTeamStatus(ctx, sel.ID, 254, store.StatusCaptain))
	require.NoError(t, st.SetTeamStatus(ctx, sel.ID, 1678, store.StatusPicked))
	require.NoError(t, st.SetSelectionRound(ctx, sel.ID, 2, false))
}

func TestArchiveAndRestore(t *testing.T) {
	svc, st, repo := newTestService(t)
	ctx := context.Background()
	seedEvent(t, st, repo)

	ae, err := svc.Archive(ctx, "2025casj", "Silicon Valley Regional")
	require.NoError(t, err)
	assert.Equal(t, "2025casj", ae.EventKey)
	assert.Equal(t, "Silicon Valley Regional", ae.Name)

	var snapshot Snapshot
	require.NoError(t, json.Unmarshal(ae.Data, &snapshot))
	require.NotNil(t, snapshot.Dataset)
	assert.Len(t, snapshot.LockedPicklists, 1)
	require.NotNil(t, snapshot.SheetConfig)
	require.NotNil(t, snapshot.Selection)

	// Wipe everything the archive covers.
	require.NoError(t, repo.Delete("2025casj"))
	require.NoError(t, st.DeleteLockedPicklist(ctx, snapshot.LockedPicklists[0].ID))
	require.NoError(t, st.DeleteSheetConfig(ctx, "2025casj"))
	require.NoError(t, st.DeleteSelection(ctx, snapshot.Selection.ID))

	restored, err := svc.Restore(ctx, ae.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025casj", restored.EventKey)

	ds, err := repo.Load("2025casj")
	require.NoError(t, err)
	assert.Equal(t, "The Cheesy Poofs", ds.Teams["frc254"].Nickname)

	locked, err := st.ListLockedPicklists(ctx, "2025casj")
	require.NoError(t, err)
	assert.Len(t, locked, 1)

	cfg, err := st.GetSheetConfig(ctx, "2025casj")
	require.NoError(t, err)
	assert.Equal(t, "1AbC", cfg.SpreadsheetID)

	sel, err := st.GetSelectionByEvent(ctx, "2025casj")
	require.NoError(t, err)
	assert.Equal(t, 2, sel.CurrentRound)
	assert.Equal(t, 254, sel.Alliances[0].Captain)
	assert.Equal(t, []int{1678}, sel.Alliances[0].Picks)
	assert.Equal(t, store.StatusPicked, sel.TeamStatuses[1678])
}

func TestRestoreReplacesExistingSelection(t *testing.T) {
	svc, st, repo := newTestService(t)
	ctx := context.Background()
	seedEvent(t, st, repo)

	ae, err := svc.Archive(ctx, "2025casj", "")
	require.NoError(t, err)

	// The live selection diverges after the archive was taken.
	sel, err := st.GetSelectionByEvent(ctx, "2025casj")
	require.NoError(t, err)
	require.NoError(t, st.SetSelectionRound(ctx, sel.ID, 3, true))

	_, err = svc.Restore(ctx, ae.ID)
	require.NoError(t, err)

	sel, err = st.GetSelectionByEvent(ctx, "2025casj")
	require.NoError(t, err)
	assert.Equal(t, 2, sel.CurrentRound)
	assert.False(t, sel.Completed)
}

func TestRepeatedRestoreKeepsOneLockedPicklistSet(t *testing.T) {
	svc, st, repo := newTestService(t)
	ctx := context.Background()
	seedEvent(t, st, repo)

	ae, err := svc.Archive(ctx, "2025casj", "")
	require.NoError(t, err)

	_, err = svc.Restore(ctx, ae.ID)
	require.NoError(t, err)
	_, err = svc.Restore(ctx, ae.ID)
	require.NoError(t, err)

	locked, err := st.ListLockedPicklists(ctx, "2025casj")
	require.NoError(t, err)
	assert.Len(t, locked, 1)
}

func TestArchiveNothingToArchive(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Archive(context.Background(), "2025nope", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to archive")
}

func TestListAndDelete(t *testing.T) {
	svc, st, repo := newTestService(t)
	ctx := context.Background()
	seedEvent(t, st, repo)

	ae, err := svc.Archive(ctx, "2025casj", "SVR")
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "SVR", list[0].Name)

	require.NoError(t, svc.Delete(ctx, ae.ID))
	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, svc.Delete(ctx, ae.ID), store.ErrNotFound)
}
