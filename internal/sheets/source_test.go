package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridscout/internal/store"
)

type fakeTabReader struct {
	rows map[string][]Record
}

func (f *fakeTabReader) ReadTab(_ context.Context, spreadsheetID, tab string) ([]Record, error) {
	return f.rows[spreadsheetID+"/"+tab], nil
}

type fakeConfigs struct {
	cfg *store.SheetConfig
	err error
}

func (f *fakeConfigs) GetSheetConfig(_ context.Context, _ string) (*store.SheetConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cfg, nil
}

func TestResolveSourceWorkbookWins(t *testing.T) {
	configs := &fakeConfigs{cfg: &store.SheetConfig{SpreadsheetID: "sheet-1"}}
	reader := &fakeTabReader{}

	src, err := ResolveSource(context.Background(), configs, reader,
		"2025casj", "scouting.xlsx", "Matches", "")
	require.NoError(t, err)
	require.IsType(t, &WorkbookSource{}, src)
}

func TestResolveSourceUsesSheetConfig(t *testing.T) {
	configs := &fakeConfigs{cfg: &store.SheetConfig{
		SpreadsheetID: "sheet-1",
		MatchTab:      "Matches",
	}}
	reader := &fakeTabReader{rows: map[string][]Record{
		"sheet-1/Matches": {{"team_number": float64(254)}},
	}}

	src, err := ResolveSource(context.Background(), configs, reader,
		"2025casj", "", "", "")
	require.NoError(t, err)
	require.NotNil(t, src)

	records, err := src.MatchRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	num, ok := records[0].TeamNumber()
	require.True(t, ok)
	assert.Equal(t, 254, num)
}

func TestResolveSourceNoReader(t *testing.T) {
	configs := &fakeConfigs{cfg: &store.SheetConfig{SpreadsheetID: "sheet-1"}}

	src, err := ResolveSource(context.Background(), configs, nil,
		"2025casj", "", "", "")
	require.NoError(t, err)
	assert.Nil(t, src)
}

func TestResolveSourceNoConfig(t *testing.T) {
	configs := &fakeConfigs{err: store.ErrNotFound}

	src, err := ResolveSource(context.Background(), configs, &fakeTabReader{},
		"2025casj", "", "", "")
	require.NoError(t, err)
	assert.Nil(t, src)
}

func TestResolveSourceConfigError(t *testing.T) {
	configs := &fakeConfigs{err: errors.New("db locked")}

	_, err := ResolveSource(context.Background(), configs, &fakeTabReader{},
		"2025casj", "", "", "")
	require.Error(t, err)
}
