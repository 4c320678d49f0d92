package picklist

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gridscout/internal/dataset"
)

// Replies use a compact positional schema to keep output tokens down:
// {"p":[[team,score,"reason"],...],"s":"ok"}.
var replySchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"p": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "array",
				"minItems": 3,
				"maxItems": 3,
				"items":    map[string]interface{}{},
			},
		},
		"s": map[string]interface{}{"type": "string"},
	},
	"required": []interface{}{"p", "s"},
}

var positionGuidance = map[Position]string{
	PositionFirst:  "Optimize for overall scoring output and reliability; this robot plays every match with you.",
	PositionSecond: "Optimize for complementary capability: coverage of tasks your alliance lacks, consistency over peak output.",
	PositionThird:  "Optimize for a dependable specialist: one job done well, no failures, useful defense.",
}

// systemPrompt describes the ranking task for one request.
func systemPrompt(req Request, priorities string) string {
	var b strings.Builder
	b.WriteString("You are an FRC alliance-selection strategist ranking candidate robots for the ")
	b.WriteString(string(req.Position))
	b.WriteString(" pick at event ")
	b.WriteString(req.EventKey)
	b.WriteString(".\n")
	if req.YourTeam > 0 {
		fmt.Fprintf(&b, "You are picking on behalf of team %d.\n", req.YourTeam)
	}
	b.WriteString(positionGuidance[req.Position])
	b.WriteString("\nWeighted priorities (higher weight matters more):\n")
	b.WriteString(priorities)
	b.WriteString("\nRank EVERY candidate exactly once. Score each 1-100 relative to this field. ")
	b.WriteString(`Reply with compact JSON only: {"p":[[team,score,"short reason"],...],"s":"ok"} sorted best first.`)
	return b.String()
}

// formatPriorities renders the priority table for the system prompt.
func formatPriorities(req Request) string {
	var b strings.Builder
	for _, p := range req.Priorities {
		fmt.Fprintf(&b, "- %s (weight %.1f)\n", p.ID, p.Weight)
	}
	return b.String()
}

// formatTeams renders the condensed candidate table. Metric values are
// rounded to one decimal and keyed once in a legend line, cutting prompt
// tokens roughly in half versus repeated JSON objects.
func formatTeams(teams []dataset.TeamMetrics, metricNames []string) string {
	var b strings.Builder
	b.WriteString("METRICS: ")
	b.WriteString(strings.Join(metricNames, ", "))
	b.WriteString("\nTEAMS (team | matches scouted | metric values in METRICS order):\n")
	for _, tm := range teams {
		fmt.Fprintf(&b, "%d|%d|", tm.TeamNumber, tm.MatchCount)
		for i, name := range metricNames {
			if i > 0 {
				b.WriteByte(',')
			}
			if v, ok := tm.Metrics[name]; ok {
				fmt.Fprintf(&b, "%.1f", v)
			} else {
				b.WriteByte('-')
			}
		}
		if len(tm.SuperNotes) > 0 {
			fmt.Fprintf(&b, "|%s", strings.Join(tm.SuperNotes, " / "))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// promptMetricNames returns the metric legend for a candidate set: the
// priority metrics first, then any remaining shared metrics.
func promptMetricNames(req Request, teams []dataset.TeamMetrics) []string {
	names := make([]string, 0, len(req.Priorities))
	seen := make(map[string]bool)
	for _, p := range req.Priorities {
		if !seen[p.ID] {
			seen[p.ID] = true
			names = append(names, p.ID)
		}
	}
	rest := make([]string, 0)
	for _, name := range dataset.MetricNames(teams) {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// parsedReply mirrors the compact reply schema.
type parsedReply struct {
	P []json.RawMessage `json:"p"`
	S string            `json:"s"`
}

// parseReply decodes an LLM reply into ranked teams. It tolerates markdown
// code fences and prose around the JSON, drops teams outside the candidate
// set, and clamps scores into (0, 100].
func parseReply(raw string, candidates map[int]dataset.TeamMetrics) ([]RankedTeam, error) {
	jsonBody := extractJSON(raw)
	if jsonBody == "" {
		return nil, fmt.Errorf("no JSON object found in reply")
	}

	var reply parsedReply
	if err := json.Unmarshal([]byte(jsonBody), &reply); err != nil {
		return nil, fmt.Errorf("failed to decode reply: %w", err)
	}

	ranked := make([]RankedTeam, 0, len(reply.P))
	for _, entry := range reply.P {
		var tuple []json.RawMessage
		if err := json.Unmarshal(entry, &tuple); err != nil || len(tuple) < 2 {
			continue
		}

		var teamNumber int
		if err := json.Unmarshal(tuple[0], &teamNumber); err != nil {
			continue
		}
		tm, ok := candidates[teamNumber]
		if !ok {
			// Hallucinated or out-of-batch team.
			continue
		}

		var score float64
		if err := json.Unmarshal(tuple[1], &score); err != nil {
			continue
		}
		if score <= 0 {
			score = 1
		}
		if score > 100 {
			score = 100
		}

		var reason string
		if len(tuple) >= 3 {
			_ = json.Unmarshal(tuple[2], &reason)
		}

		ranked = append(ranked, RankedTeam{
			TeamNumber: teamNumber,
			Nickname:   tm.Nickname,
			Score:      score,
			Reason:     reason,
		})
	}

	if len(ranked) == 0 {
		return nil, fmt.Errorf("reply contained no usable rankings")
	}
	return ranked, nil
}

// extractJSON strips code fences and surrounding prose, returning the first
// balanced top-level JSON object.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
