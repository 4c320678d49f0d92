package statbotics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTeamYear(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/team_year/254/2025", r.URL.Path)
		w.Write([]byte(`{
			"team": 254,
			"year": 2025,
			"epa": {
				"total_points_mean": 85.4,
				"breakdown": {"auto_points_mean": 21.2, "teleop_points_mean": 49.1, "endgame_points_mean": 15.1},
				"rank": 3,
				"percentile": 0.999
			},
			"record": {"wins": 52, "losses": 8, "ties": 0}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	ty, err := c.GetTeamYear(context.Background(), 254, 2025)
	require.NoError(t, err)

	assert.Equal(t, 254, ty.Team)
	assert.InDelta(t, 85.4, ty.EPA.Total, 0.001)
	assert.InDelta(t, 21.2, ty.EPA.Breakdown.Auto, 0.001)
	assert.Equal(t, 52, ty.Record.Wins)
}

func TestGetTeamYear_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	_, err := c.GetTeamYear(context.Background(), 99999, 2025)
	assert.ErrorIs(t, err, ErrNotFound)
}
