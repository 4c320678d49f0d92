// Package statbotics is a read-only client for the Statbotics API v3,
// used for EPA (Expected Points Added) metrics.
package statbotics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotFound is returned for 404 responses (team did not compete that year).
var ErrNotFound = fmt.Errorf("statbotics: not found")

const defaultBaseURL = "https://api.statbotics.io/v3"

// Client calls the Statbotics API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Statbotics client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// TeamYear is the subset of the Statbotics team-year record GridScout uses.
type TeamYear struct {
	Team int `json:"team"`
	Year int `json:"year"`
	EPA  struct {
		Total     float64 `json:"total_points_mean"`
		Breakdown struct {
			Auto    float64 `json:"auto_points_mean"`
			Teleop  float64 `json:"teleop_points_mean"`
			Endgame float64 `json:"endgame_points_mean"`
		} `json:"breakdown"`
		Rank       int     `json:"rank"`
		Percentile float64 `json:"percentile"`
	} `json:"epa"`
	Record struct {
		Wins   int `json:"wins"`
		Losses int `json:"losses"`
		Ties   int `json:"ties"`
	} `json:"record"`
}

// GetTeamYear fetches a team's season EPA record.
func (c *Client) GetTeamYear(ctx context.Context, teamNumber, year int) (*TeamYear, error) {
	var lastErr error
	path := fmt.Sprintf("/team_year/%d/%d", teamNumber, year)

	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
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
			return nil, fmt.Errorf("%w: team %d year %d", ErrNotFound, teamNumber, year)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("statbotics returned status %d", resp.StatusCode)
			continue
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("statbotics returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		var ty TeamYear
		if err := json.Unmarshal(body, &ty); err != nil {
			return nil, fmt.Errorf("failed to decode team_year: %w", err)
		}
		return &ty, nil
	}
	return nil, fmt.Errorf("statbotics request failed after retries: %w", lastErr)
}
