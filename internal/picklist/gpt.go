package picklist

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gridscout/internal/dataset"
	"gridscout/internal/llm"
	"gridscout/internal/logging"

	"go.uber.org/zap"
)

// GPTService turns candidate metrics into LLM-ranked teams. It owns prompt
// construction and reply parsing; batching and merging live in
// BatchProcessor.
type GPTService struct {
	client llm.Client
	// parseRetries re-asks the model when a reply fails to parse.
	parseRetries int
}

// NewGPTService creates a GPT ranking service.
func NewGPTService(client llm.Client) *GPTService {
	return &GPTService{client: client, parseRetries: 2}
}

// RankTeams asks the model to rank one candidate set. The returned slice
// contains only candidates, deduplicated, best first.
func (s *GPTService) RankTeams(ctx context.Context, req Request, teams []dataset.TeamMetrics) ([]RankedTeam, error) {
	if len(teams) == 0 {
		return nil, nil
	}

	candidates := candidateMap(teams)
	system := systemPrompt(req, formatPriorities(req))
	user := formatTeams(teams, promptMetricNames(req, teams))

	return s.rank(ctx, system, user, candidates)
}

// RankMissingTeams ranks teams the first pass dropped. The existing ranking
// tail is included so scores land on a comparable scale.
func (s *GPTService) RankMissingTeams(ctx context.Context, req Request, missing []dataset.TeamMetrics, existing []RankedTeam) ([]RankedTeam, error) {
	if len(missing) == 0 {
		return nil, nil
	}

	candidates := candidateMap(missing)
	system := systemPrompt(req, formatPriorities(req)) +
		"\nThese teams were omitted from an earlier ranking pass. Slot them onto the same 1-100 scale as the reference entries below; do not re-rank the references."

	var b strings.Builder
	b.WriteString("REFERENCE ENTRIES (team, score) from the existing ranking:\n")
	for _, rt := range rankingTail(existing, 5) {
		fmt.Fprintf(&b, "%d: %.1f\n", rt.TeamNumber, rt.Score)
	}
	b.WriteString("\nCANDIDATES TO RANK:\n")
	b.WriteString(formatTeams(missing, promptMetricNames(req, missing)))

	return s.rank(ctx, system, b.String(), candidates)
}

func (s *GPTService) rank(ctx context.Context, system, user string, candidates map[int]dataset.TeamMetrics) ([]RankedTeam, error) {
	log := logging.Get(logging.CategoryPicklist)

	var lastErr error
	for attempt := 0; attempt <= s.parseRetries; attempt++ {
		start := time.Now()
		raw, err := s.client.CompleteJSON(ctx, system, user, "picklist_ranking", replySchema)
		if err != nil {
			return nil, fmt.Errorf("ranking call failed: %w", err)
		}

		ranked, err := parseReply(raw, candidates)
		if err != nil {
			lastErr = err
			log.Warn("unparseable ranking reply, retrying",
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		log.Debug("ranking batch complete",
			zap.Int("candidates", len(candidates)),
			zap.Int("ranked", len(ranked)),
			zap.Duration("elapsed", time.Since(start)))
		return dedupeKeepHigher(ranked), nil
	}
	return nil, fmt.Errorf("ranking reply unusable after retries: %w", lastErr)
}

func candidateMap(teams []dataset.TeamMetrics) map[int]dataset.TeamMetrics {
	m := make(map[int]dataset.TeamMetrics, len(teams))
	for _, tm := range teams {
		m[tm.TeamNumber] = tm
	}
	return m
}

// rankingTail returns the last n entries of a ranking (or fewer).
func rankingTail(ranked []RankedTeam, n int) []RankedTeam {
	if len(ranked) <= n {
		return ranked
	}
	return ranked[len(ranked)-n:]
}

// dedupeKeepHigher collapses duplicate team numbers, keeping the higher
// score, and re-sorts best first with team number as the tiebreak.
func dedupeKeepHigher(ranked []RankedTeam) []RankedTeam {
	best := make(map[int]RankedTeam, len(ranked))
	for _, rt := range ranked {
		if cur, ok := best[rt.TeamNumber]; !ok || rt.Score > cur.Score {
			best[rt.TeamNumber] = rt
		}
	}
	out := make([]RankedTeam, 0, len(best))
	for _, rt := range best {
		out = append(out, rt)
	}
	sortRanked(out)
	return out
}

func sortRanked(ranked []RankedTeam) {
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].TeamNumber < ranked[j].TeamNumber
	})
}
