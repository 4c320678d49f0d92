package tba

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-auth-key", 2*time.Second)
}

func TestEventTeams(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/event/2025arc/teams/simple", r.URL.Path)
		assert.Equal(t, "test-auth-key", r.Header.Get("X-TBA-Auth-Key"))
		w.Write([]byte(`[
			{"key":"frc254","team_number":254,"nickname":"The Cheesy Poofs"},
			{"key":"frc1678","team_number":1678,"nickname":"Citrus Circuits"}
		]`))
	}))

	teams, err := c.EventTeams(context.Background(), "2025arc")
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, 254, teams[0].TeamNumber)
	assert.Equal(t, "Citrus Circuits", teams[1].Nickname)
}

func TestEventRankings(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rankings":[{"team_key":"frc254","rank":1,"record":{"wins":10,"losses":2,"ties":0},"matches_played":12}]}`))
	}))

	rankings, err := c.EventRankings(context.Background(), "2025arc")
	require.NoError(t, err)
	require.Len(t, rankings, 1)
	assert.Equal(t, 1, rankings[0].Rank)
	assert.Equal(t, 10, rankings[0].Record.Wins)
}

func TestGet_NotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.EventTeams(context.Background(), "2025nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	}))

	_, err := c.EventMatches(context.Background(), "2025arc")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}
