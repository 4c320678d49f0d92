// Package analysis scores teams against weighted metric priorities. The
// weighted pre-ranking seeds the LLM picklist: it picks reference teams for
// batch normalization and orders candidates in the prompt.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"gridscout/internal/dataset"
)

// Priority is one weighted metric in a picklist request, e.g.
// {"id": "epa_total", "weight": 3.0}.
type Priority struct {
	ID     string  `json:"id"`
	Weight float64 `json:"weight"`
}

// TeamScore is a team's weighted score against a priority list.
type TeamScore struct {
	TeamNumber int     `json:"team_number"`
	Nickname   string  `json:"nickname,omitempty"`
	Score      float64 `json:"score"`
	// MetricValues carries the raw values behind the score for display.
	MetricValues map[string]float64 `json:"metric_values,omitempty"`
}

// lowerIsBetter lists metrics where smaller values are stronger.
var lowerIsBetter = map[string]bool{
	"qual_rank": true,
}

// ValidatePriorities rejects empty lists and non-positive weights before any
// LLM spend happens.
func ValidatePriorities(priorities []Priority) error {
	if len(priorities) == 0 {
		return fmt.Errorf("at least one priority metric is required")
	}
	for _, p := range priorities {
		if p.ID == "" {
			return fmt.Errorf("priority metric id must not be empty")
		}
		if p.Weight <= 0 || math.IsNaN(p.Weight) || math.IsInf(p.Weight, 0) {
			return fmt.Errorf("priority %q has invalid weight %v", p.ID, p.Weight)
		}
	}
	return nil
}

// ScoreTeams computes the weighted score of every team. Each metric is
// min-max normalized across the field to [0,1] before weighting, so metrics
// on different scales (EPA vs. coral counts) contribute proportionally.
// Zero-range metrics contribute nothing. Order: score desc, team number asc.
func ScoreTeams(teams []dataset.TeamMetrics, priorities []Priority) []TeamScore {
	mins := make(map[string]float64, len(priorities))
	maxs := make(map[string]float64, len(priorities))
	for _, p := range priorities {
		mins[p.ID] = math.Inf(1)
		maxs[p.ID] = math.Inf(-1)
	}
	for _, tm := range teams {
		for _, p := range priorities {
			v, ok := tm.Metrics[p.ID]
			if !ok {
				continue
			}
			mins[p.ID] = math.Min(mins[p.ID], v)
			maxs[p.ID] = math.Max(maxs[p.ID], v)
		}
	}

	scores := make([]TeamScore, 0, len(teams))
	for _, tm := range teams {
		ts := TeamScore{
			TeamNumber:   tm.TeamNumber,
			Nickname:     tm.Nickname,
			MetricValues: make(map[string]float64, len(priorities)),
		}
		for _, p := range priorities {
			v, ok := tm.Metrics[p.ID]
			if !ok {
				continue
			}
			ts.MetricValues[p.ID] = v

			span := maxs[p.ID] - mins[p.ID]
			if span <= 0 || math.IsInf(span, 0) {
				continue
			}
			norm := (v - mins[p.ID]) / span
			if lowerIsBetter[p.ID] {
				norm = 1 - norm
			}
			ts.Score += norm * p.Weight
		}
		scores = append(scores, ts)
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].TeamNumber < scores[j].TeamNumber
	})
	return scores
}

// ReferenceTeams picks count teams spread across the pre-ranking (top,
// middle, bottom) to anchor score normalization between LLM batches.
func ReferenceTeams(ranked []TeamScore, count int) []int {
	if count <= 0 || len(ranked) == 0 {
		return nil
	}
	if count >= len(ranked) {
		nums := make([]int, len(ranked))
		for i, ts := range ranked {
			nums[i] = ts.TeamNumber
		}
		return nums
	}

	if count == 1 {
		return []int{ranked[0].TeamNumber}
	}

	nums := make([]int, 0, count)
	seen := make(map[int]bool, count)
	// Evenly spaced indices including both ends.
	for i := 0; i < count; i++ {
		idx := i * (len(ranked) - 1) / (count - 1)
		team := ranked[idx].TeamNumber
		if !seen[team] {
			seen[team] = true
			nums = append(nums, team)
		}
	}
	return nums
}
