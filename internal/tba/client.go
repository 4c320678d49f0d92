// Package tba is a read-only client for The Blue Alliance API v3.
package tba

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gridscout/internal/logging"

	"go.uber.org/zap"
)

// ErrNotFound is returned for 404 responses (unknown event keys, events
// without rankings yet).
var ErrNotFound = fmt.Errorf("tba: not found")

const defaultBaseURL = "https://www.thebluealliance.com/api/v3"

// Client calls The Blue Alliance API.
type Client struct {
	baseURL    string
	authKey    string
	httpClient *http.Client
}

// NewClient creates a TBA client. authKey is the X-TBA-Auth-Key value.
func NewClient(baseURL, authKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authKey:    authKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Team is a TBA simple team record.
type Team struct {
	Key        string `json:"key"`
	TeamNumber int    `json:"team_number"`
	Nickname   string `json:"nickname"`
	City       string `json:"city"`
	StateProv  string `json:"state_prov"`
	Country    string `json:"country"`
}

// Match is a TBA simple match record.
type Match struct {
	Key         string `json:"key"`
	CompLevel   string `json:"comp_level"`
	SetNumber   int    `json:"set_number"`
	MatchNumber int    `json:"match_number"`
	Alliances   struct {
		Red  MatchAlliance `json:"red"`
		Blue MatchAlliance `json:"blue"`
	} `json:"alliances"`
	WinningAlliance string `json:"winning_alliance"`
	Time            int64  `json:"time"`
}

// MatchAlliance is one side of a match.
type MatchAlliance struct {
	Score    int      `json:"score"`
	TeamKeys []string `json:"team_keys"`
}

// Ranking is a single entry of an event ranking table.
type Ranking struct {
	TeamKey string `json:"team_key"`
	Rank    int    `json:"rank"`
	Record  struct {
		Wins   int `json:"wins"`
		Losses int `json:"losses"`
		Ties   int `json:"ties"`
	} `json:"record"`
	MatchesPlayed int `json:"matches_played"`
}

type rankingsResponse struct {
	Rankings []Ranking `json:"rankings"`
}

// EventTeams returns the simple team list for an event.
func (c *Client) EventTeams(ctx context.Context, eventKey string) ([]Team, error) {
	var teams []Team
	if err := c.get(ctx, fmt.Sprintf("/event/%s/teams/simple", eventKey), &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// EventMatches returns the simple match list for an event.
func (c *Client) EventMatches(ctx context.Context, eventKey string) ([]Match, error) {
	var matches []Match
	if err := c.get(ctx, fmt.Sprintf("/event/%s/matches/simple", eventKey), &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// EventRankings returns the ranking table for an event. Events that have not
// played qualification matches yet return an empty slice.
func (c *Client) EventRankings(ctx context.Context, eventKey string) ([]Ranking, error) {
	var resp rankingsResponse
	if err := c.get(ctx, fmt.Sprintf("/event/%s/rankings", eventKey), &resp); err != nil {
		return nil, err
	}
	return resp.Rankings, nil
}

// get fetches a path and decodes the JSON body into out, retrying transient
// upstream failures.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	log := logging.Get(logging.CategoryTBA)

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("X-TBA-Auth-Key", c.authKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("tba returned status %d for %s", resp.StatusCode, path)
			continue
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("tba returned status %d for %s: %s", resp.StatusCode, path, strings.TrimSpace(string(body)))
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
		log.Debug("fetched", zap.String("path", path), zap.Int("attempt", attempt+1))
		return nil
	}
	return fmt.Errorf("tba request failed after retries: %w", lastErr)
}
