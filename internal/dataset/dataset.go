// Package dataset builds, stores, and aggregates per-event unified datasets:
// one JSON document per event merging scouting-sheet rows, The Blue Alliance
// data, and Statbotics EPA metrics.
package dataset

import (
	"sort"
	"time"

	"gridscout/internal/sheets"
)

// SchemaVersion is written into dataset metadata so older files can be
// detected after breaking layout changes.
const SchemaVersion = "2"

// Dataset is the unified per-event dataset document.
type Dataset struct {
	EventKey string                `json:"event_key"`
	Year     int                   `json:"year"`
	Teams    map[string]*TeamEntry `json:"teams"`
	Matches  []Match               `json:"matches,omitempty"`
	Metadata Metadata              `json:"metadata"`
}

// TeamEntry merges all sources for one team at one event.
type TeamEntry struct {
	TeamNumber   int             `json:"team_number"`
	Nickname     string          `json:"nickname,omitempty"`
	ScoutingData []sheets.Record `json:"scouting_data,omitempty"`
	SuperNotes   []string        `json:"superscouting_notes,omitempty"`
	Statbotics   *StatboticsInfo `json:"statbotics_info,omitempty"`
	Ranking      *RankingInfo    `json:"ranking_info,omitempty"`
}

// StatboticsInfo is the EPA snapshot carried in the dataset.
type StatboticsInfo struct {
	EPATotal   float64 `json:"epa_total"`
	EPAAuto    float64 `json:"epa_auto"`
	EPATeleop  float64 `json:"epa_teleop"`
	EPAEndgame float64 `json:"epa_endgame"`
	EPARank    int     `json:"epa_rank,omitempty"`
}

// RankingInfo is the TBA qualification ranking snapshot.
type RankingInfo struct {
	Rank          int `json:"rank"`
	Wins          int `json:"wins"`
	Losses        int `json:"losses"`
	Ties          int `json:"ties"`
	MatchesPlayed int `json:"matches_played"`
}

// Match is one scheduled or played match.
type Match struct {
	Key         string `json:"key"`
	CompLevel   string `json:"comp_level"`
	MatchNumber int    `json:"match_number"`
	RedTeams    []int  `json:"red_teams"`
	BlueTeams   []int  `json:"blue_teams"`
	RedScore    int    `json:"red_score"`
	BlueScore   int    `json:"blue_score"`
	Winner      string `json:"winner,omitempty"`
}

// Metadata records provenance for a dataset file.
type Metadata struct {
	BuiltAt       time.Time `json:"built_at"`
	Sources       []string  `json:"sources"`
	SchemaVersion string    `json:"schema_version"`
}

// TeamNumbers returns the sorted team numbers present in the dataset.
func (d *Dataset) TeamNumbers() []int {
	nums := make([]int, 0, len(d.Teams))
	for _, entry := range d.Teams {
		nums = append(nums, entry.TeamNumber)
	}
	sort.Ints(nums)
	return nums
}
