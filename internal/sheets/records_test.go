package sheets

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestNormalizeHeader(t *testing.T) {
	cases := map[string]string{
		"Team Number":    "team_number",
		"Auto Coral L4":  "auto_coral_l4",
		"  Defense?  ":   "defense",
		"Climb (deep)":   "climb_deep",
		"auto_coral_l4":  "auto_coral_l4",
		"Scouter Name #": "scouter_name",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeHeader(in), "input %q", in)
	}
}

func TestRecordsFromRows(t *testing.T) {
	rows := [][]string{
		{"Team Number", "Match", "Auto Coral L4", "Defense?", "Notes"},
		{"254", "qm1", "5", "TRUE", "fast cycles"},
		{"1678", "qm1", "3.5", "no", ""},
		{"", "", "", "", ""}, // fully empty, skipped
		{"930", "qm2", "2"},  // short row, padded
	}

	records, err := RecordsFromRows(rows)
	require.NoError(t, err)
	require.Len(t, records, 3)

	want := Record{
		"team_number":   float64(254),
		"match":         "qm1",
		"auto_coral_l4": float64(5),
		"defense":       true,
		"notes":         "fast cycles",
	}
	if diff := cmp.Diff(want, records[0]); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, false, records[1]["defense"])
	assert.Equal(t, "", records[2]["defense"])
}

func TestRecordsFromRows_NoHeader(t *testing.T) {
	_, err := RecordsFromRows(nil)
	assert.Error(t, err)
}

func TestRecordTeamNumber(t *testing.T) {
	assert.Equal(t, 254, mustTeam(t, Record{"team_number": float64(254)}))
	assert.Equal(t, 1678, mustTeam(t, Record{"team": "frc1678"}))
	assert.Equal(t, 930, mustTeam(t, Record{"team_num": "930"}))

	_, ok := Record{"notes": "no team column"}.TeamNumber()
	assert.False(t, ok)
	_, ok = Record{"team_number": float64(0)}.TeamNumber()
	assert.False(t, ok)
}

func mustTeam(t *testing.T, r Record) int {
	t.Helper()
	n, ok := r.TeamNumber()
	require.True(t, ok)
	return n
}

func TestReadWorkbookTab(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scouting.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Team Number", "Auto Points"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{254, 18}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{1678, 12}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	records, err := ReadWorkbookTab(path, "Sheet1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	team, ok := records[0].TeamNumber()
	require.True(t, ok)
	assert.Equal(t, 254, team)
	assert.Equal(t, float64(18), records[0]["auto_points"])

	tabs, err := WorkbookTabs(path)
	require.NoError(t, err)
	assert.Contains(t, tabs, "Sheet1")
}
