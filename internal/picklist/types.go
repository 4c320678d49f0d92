// Package picklist generates ranked alliance-selection picklists by feeding
// aggregated team metrics to an LLM in token-efficient batches and
// reconciling the replies into a complete, deduplicated ranking.
package picklist

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gridscout/internal/analysis"
)

// Position is which alliance pick the list is for. First picks optimize for
// raw output, later picks for complementary roles.
type Position string

const (
	PositionFirst  Position = "first"
	PositionSecond Position = "second"
	PositionThird  Position = "third"
)

// Valid reports whether the position is one of the known values.
func (p Position) Valid() bool {
	switch p {
	case PositionFirst, PositionSecond, PositionThird:
		return true
	}
	return false
}

// Request describes one picklist generation.
type Request struct {
	EventKey     string              `json:"event_key"`
	Position     Position            `json:"position"`
	Priorities   []analysis.Priority `json:"priorities"`
	ExcludeTeams []int               `json:"exclude_teams,omitempty"`
	// YourTeam is the requesting team's number, excluded from candidates
	// and given to the model as context.
	YourTeam int `json:"your_team,omitempty"`
}

// CacheKey derives a stable key from everything that affects the output.
// Exclusions are sorted so permutations of the same request share a key.
func (r Request) CacheKey() string {
	norm := r
	norm.ExcludeTeams = append([]int(nil), r.ExcludeTeams...)
	sort.Ints(norm.ExcludeTeams)

	data, _ := json.Marshal(norm)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Validate checks the request before any upstream work.
func (r Request) Validate() error {
	if r.EventKey == "" {
		return fmt.Errorf("event_key is required")
	}
	if !r.Position.Valid() {
		return fmt.Errorf("position must be first, second, or third")
	}
	return analysis.ValidatePriorities(r.Priorities)
}

// RankedTeam is one picklist entry.
type RankedTeam struct {
	TeamNumber int     `json:"team_number"`
	Nickname   string  `json:"nickname,omitempty"`
	Score      float64 `json:"score"`
	Reason     string  `json:"reason,omitempty"`
}

// Result is a completed picklist.
type Result struct {
	EventKey string       `json:"event_key"`
	Position Position     `json:"position"`
	Picklist []RankedTeam `json:"picklist"`
	// MissingRecovered lists teams the first pass dropped and a follow-up
	// LLM call reinserted.
	MissingRecovered []int     `json:"missing_recovered,omitempty"`
	Batches          int       `json:"batches"`
	GeneratedAt      time.Time `json:"generated_at"`
	CacheKey         string    `json:"cache_key"`
}
