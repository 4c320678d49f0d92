package picklist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridscout/internal/analysis"
	"gridscout/internal/dataset"
)

func promptCandidates() map[int]dataset.TeamMetrics {
	return map[int]dataset.TeamMetrics{
		254:  {TeamNumber: 254, Nickname: "The Cheesy Poofs"},
		1678: {TeamNumber: 1678, Nickname: "Citrus Circuits"},
		5940: {TeamNumber: 5940},
	}
}

func TestParseReply(t *testing.T) {
	candidates := promptCandidates()

	t.Run("plain JSON", func(t *testing.T) {
		ranked, err := parseReply(`{"p":[[254,95,"fast cycles"],[1678,88,"strong auto"]],"s":"ok"}`, candidates)
		require.NoError(t, err)
		require.Len(t, ranked, 2)
		assert.Equal(t, 254, ranked[0].TeamNumber)
		assert.Equal(t, "The Cheesy Poofs", ranked[0].Nickname)
		assert.Equal(t, 95.0, ranked[0].Score)
		assert.Equal(t, "fast cycles", ranked[0].Reason)
	})

	t.Run("fenced with prose", func(t *testing.T) {
		raw := "Here is the ranking:\n```json\n{\"p\":[[254,90,\"ok\"]],\"s\":\"ok\"}\n```\nHope that helps."
		ranked, err := parseReply(raw, candidates)
		require.NoError(t, err)
		require.Len(t, ranked, 1)
		assert.Equal(t, 254, ranked[0].TeamNumber)
	})

	t.Run("drops hallucinated teams", func(t *testing.T) {
		ranked, err := parseReply(`{"p":[[254,90,"ok"],[9999,95,"made up"]],"s":"ok"}`, candidates)
		require.NoError(t, err)
		require.Len(t, ranked, 1)
		assert.Equal(t, 254, ranked[0].TeamNumber)
	})

	t.Run("clamps scores", func(t *testing.T) {
		ranked, err := parseReply(`{"p":[[254,150,""],[1678,-3,""]],"s":"ok"}`, candidates)
		require.NoError(t, err)
		require.Len(t, ranked, 2)
		assert.Equal(t, 100.0, ranked[0].Score)
		assert.Equal(t, 1.0, ranked[1].Score)
	})

	t.Run("skips malformed tuples", func(t *testing.T) {
		ranked, err := parseReply(`{"p":[["not a number",90,""],[254],[1678,70,"ok"]],"s":"ok"}`, candidates)
		require.NoError(t, err)
		require.Len(t, ranked, 1)
		assert.Equal(t, 1678, ranked[0].TeamNumber)
	})

	t.Run("no JSON at all", func(t *testing.T) {
		_, err := parseReply("I cannot rank these teams.", candidates)
		assert.Error(t, err)
	})

	t.Run("nothing usable", func(t *testing.T) {
		_, err := parseReply(`{"p":[[9999,90,""]],"s":"ok"}`, candidates)
		assert.Error(t, err)
	})
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"leading prose", `sure: {"a":1} done`, `{"a":1}`},
		{"nested braces", `{"a":{"b":2}}`, `{"a":{"b":2}}`},
		{"brace in string", `{"a":"}{"}`, `{"a":"}{"}`},
		{"escaped quote in string", `{"a":"say \"hi\""}`, `{"a":"say \"hi\""}`},
		{"unbalanced", `{"a":1`, ""},
		{"no object", "nothing here", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractJSON(tc.raw))
		})
	}
}

func TestFormatTeams(t *testing.T) {
	teams := []dataset.TeamMetrics{
		{
			TeamNumber: 254,
			MatchCount: 10,
			Metrics:    map[string]float64{"auto_points": 12.34, "epa_total": 85.0},
			SuperNotes: []string{"great driver"},
		},
		{
			TeamNumber: 1678,
			MatchCount: 9,
			Metrics:    map[string]float64{"auto_points": 8.0},
		},
	}

	out := formatTeams(teams, []string{"auto_points", "epa_total"})
	assert.Contains(t, out, "METRICS: auto_points, epa_total")
	assert.Contains(t, out, "254|10|12.3,85.0|great driver")
	// Missing metric renders as a dash placeholder.
	assert.Contains(t, out, "1678|9|8.0,-")
}

func TestPromptMetricNames(t *testing.T) {
	req := Request{Priorities: []analysis.Priority{
		{ID: "teleop_points", Weight: 2},
		{ID: "auto_points", Weight: 1},
	}}
	teams := []dataset.TeamMetrics{
		{TeamNumber: 254, Metrics: map[string]float64{"auto_points": 1, "endgame_points": 2, "climb_rate": 3}},
	}

	names := promptMetricNames(req, teams)
	// Priority metrics lead in priority order, the rest follow sorted.
	assert.Equal(t, []string{"teleop_points", "auto_points", "climb_rate", "endgame_points"}, names)
}

func TestSystemPromptMentionsPositionAndTeam(t *testing.T) {
	req := Request{
		EventKey: "2025casj",
		Position: PositionSecond,
		YourTeam: 5940,
		Priorities: []analysis.Priority{
			{ID: "epa_total", Weight: 1},
		},
	}
	prompt := systemPrompt(req, formatPriorities(req))
	assert.Contains(t, prompt, "second")
	assert.Contains(t, prompt, "2025casj")
	assert.Contains(t, prompt, "team 5940")
	assert.True(t, strings.Contains(prompt, "epa_total"))
}
