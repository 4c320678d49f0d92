package dataset

import (
	"sort"
)

// TeamMetrics is the per-team aggregate the analysis and picklist layers
// consume: averages over scouting rows plus passthrough EPA/ranking fields.
type TeamMetrics struct {
	TeamNumber int                `json:"team_number"`
	Nickname   string             `json:"nickname,omitempty"`
	MatchCount int                `json:"match_count"`
	Metrics    map[string]float64 `json:"metrics"`
	SuperNotes []string           `json:"superscouting_notes,omitempty"`
}

// nonMetricFields are scouting columns that parse as numbers but are not
// performance metrics.
var nonMetricFields = map[string]bool{
	"team_number":  true,
	"team":         true,
	"team_num":     true,
	"team_no":      true,
	"match":        true,
	"match_number": true,
}

// Aggregate computes per-team metric averages for a dataset. Numeric
// scouting fields are averaged, booleans become rates, strings are ignored.
// Teams without scouting rows still appear so TBA/Statbotics-only teams can
// be ranked.
func Aggregate(ds *Dataset) []TeamMetrics {
	out := make([]TeamMetrics, 0, len(ds.Teams))

	for _, entry := range ds.Teams {
		tm := TeamMetrics{
			TeamNumber: entry.TeamNumber,
			Nickname:   entry.Nickname,
			MatchCount: len(entry.ScoutingData),
			Metrics:    make(map[string]float64),
			SuperNotes: entry.SuperNotes,
		}

		sums := make(map[string]float64)
		counts := make(map[string]int)
		for _, rec := range entry.ScoutingData {
			for field, value := range rec {
				if nonMetricFields[field] {
					continue
				}
				switch v := value.(type) {
				case float64:
					sums[field] += v
					counts[field]++
				case bool:
					if v {
						sums[field]++
					}
					counts[field]++
				}
			}
		}
		for field, count := range counts {
			if count > 0 {
				tm.Metrics[field] = sums[field] / float64(count)
			}
		}

		if entry.Statbotics != nil {
			tm.Metrics["epa_total"] = entry.Statbotics.EPATotal
			tm.Metrics["epa_auto"] = entry.Statbotics.EPAAuto
			tm.Metrics["epa_teleop"] = entry.Statbotics.EPATeleop
			tm.Metrics["epa_endgame"] = entry.Statbotics.EPAEndgame
		}
		if entry.Ranking != nil {
			tm.Metrics["qual_rank"] = float64(entry.Ranking.Rank)
			if entry.Ranking.MatchesPlayed > 0 {
				tm.Metrics["win_rate"] = float64(entry.Ranking.Wins) / float64(entry.Ranking.MatchesPlayed)
			}
		}

		out = append(out, tm)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].TeamNumber < out[j].TeamNumber })
	return out
}

// MetricNames returns the union of metric names across teams, sorted.
// The picklist prompt and the priority-selection UI both use it.
func MetricNames(teams []TeamMetrics) []string {
	seen := make(map[string]bool)
	for _, tm := range teams {
		for name := range tm.Metrics {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
