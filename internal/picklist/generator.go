package picklist

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"gridscout/internal/analysis"
	"gridscout/internal/dataset"
	"gridscout/internal/logging"
)

// GeneratorConfig tunes batching behavior.
type GeneratorConfig struct {
	// BatchSize is how many candidate teams go into one LLM call.
	BatchSize int
	// BatchingThreshold is the candidate count above which the request is
	// split into batches. At or below it a single call handles everything.
	BatchingThreshold int
	// ReferenceCount is how many reference teams anchor cross-batch scores.
	ReferenceCount int
	// BatchDelay paces consecutive LLM calls.
	BatchDelay time.Duration
	// JobTimeout bounds one async generation end to end.
	JobTimeout time.Duration
}

func (c GeneratorConfig) withDefaults() GeneratorConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.BatchingThreshold <= 0 {
		c.BatchingThreshold = 40
	}
	if c.ReferenceCount <= 0 {
		c.ReferenceCount = 3
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 10 * time.Minute
	}
	return c
}

// Generator runs the full pipeline: dataset load, metric aggregation,
// deterministic pre-ranking, LLM ranking with batching, missing-team
// recovery, and result caching.
type Generator struct {
	repo    *dataset.Repository
	gpt     *GPTService
	cache   Cache
	tracker *Tracker
	cfg     GeneratorConfig
	group   singleflight.Group
	logger  *zap.Logger
}

// NewGenerator wires the pipeline together.
func NewGenerator(repo *dataset.Repository, gpt *GPTService, cache Cache, cfg GeneratorConfig) *Generator {
	return &Generator{
		repo:    repo,
		gpt:     gpt,
		cache:   cache,
		tracker: NewTracker(),
		cfg:     cfg.withDefaults(),
		logger:  logging.Get(logging.CategoryPicklist),
	}
}

// Generate produces a picklist synchronously. Identical concurrent requests
// collapse into one upstream run.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	key := req.CacheKey()
	if cached, ok := g.cache.Get(ctx, key); ok {
		g.logger.Debug("picklist cache hit", zap.String("event", req.EventKey), zap.String("key", key))
		return cached, nil
	}

	v, err, _ := g.group.Do(key, func() (interface{}, error) {
		if cached, ok := g.cache.Get(ctx, key); ok {
			return cached, nil
		}
		result, err := g.generate(ctx, req, key, nil)
		if err != nil {
			return nil, err
		}
		g.cache.Set(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// StartJob kicks off an async generation and returns a job ID to poll. A job
// already running for the same request is reused.
func (g *Generator) StartJob(req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	key := req.CacheKey()
	if !g.tracker.StartIfInactive(key) {
		return key, nil
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), g.cfg.JobTimeout)
		defer cancel()

		v, err, _ := g.group.Do(key, func() (interface{}, error) {
			if cached, ok := g.cache.Get(ctx, key); ok {
				return cached, nil
			}
			result, err := g.generate(ctx, req, key, func(percent int, message string) {
				g.tracker.Update(key, percent, message)
			})
			if err != nil {
				return nil, err
			}
			g.cache.Set(ctx, key, result)
			return result, nil
		})
		if err != nil {
			g.logger.Error("picklist job failed",
				zap.String("event", req.EventKey),
				zap.String("job", key),
				zap.Error(err))
			g.tracker.Fail(key, err)
			return
		}
		g.tracker.Complete(key, v.(*Result))
	}()
	return key, nil
}

// JobStatus returns the current state of an async job.
func (g *Generator) JobStatus(jobID string) (Job, bool) {
	return g.tracker.Get(jobID)
}

// ClearCache drops every cached picklist.
func (g *Generator) ClearCache(ctx context.Context) {
	g.cache.Clear(ctx)
	g.logger.Info("picklist cache cleared")
}

func (g *Generator) generate(ctx context.Context, req Request, key string, progress func(int, string)) (*Result, error) {
	report := func(percent int, message string) {
		if progress != nil {
			progress(percent, message)
		}
	}
	report(5, "loading dataset")

	ds, err := g.repo.Load(req.EventKey)
	if err != nil {
		return nil, err
	}
	teams := dataset.Aggregate(ds)
	candidates := g.filterCandidates(teams, req)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidate teams for event %s after exclusions", req.EventKey)
	}
	report(10, fmt.Sprintf("ranking %d teams", len(candidates)))

	prerank := analysis.ScoreTeams(candidates, req.Priorities)
	candidates = reorder(candidates, prerank)

	var (
		ranked  []RankedTeam
		batches int
	)
	if len(candidates) <= g.cfg.BatchingThreshold {
		ranked, err = g.gpt.RankTeams(ctx, req, candidates)
		batches = 1
	} else {
		refs := analysis.ReferenceTeams(prerank, g.cfg.ReferenceCount)
		proc := NewBatchProcessor(g.gpt, g.cfg.BatchSize, g.cfg.BatchDelay)
		proc.OnBatch(func(done, total int) {
			report(10+done*75/total, fmt.Sprintf("batch %d of %d", done, total))
		})
		ranked, batches, err = proc.Process(ctx, req, candidates, refs)
	}
	if err != nil {
		return nil, err
	}
	report(85, "checking coverage")

	ranked, recovered := g.recoverMissing(ctx, req, candidates, ranked)
	sortRanked(ranked)
	report(95, "finalizing")

	result := &Result{
		EventKey:         req.EventKey,
		Position:         req.Position,
		Picklist:         ranked,
		MissingRecovered: recovered,
		Batches:          batches,
		GeneratedAt:      time.Now().UTC(),
		CacheKey:         key,
	}
	g.logger.Info("picklist generated",
		zap.String("event", req.EventKey),
		zap.String("position", string(req.Position)),
		zap.Int("teams", len(ranked)),
		zap.Int("batches", batches),
		zap.Int("recovered", len(recovered)))
	return result, nil
}

// filterCandidates removes excluded teams and the requesting team.
func (g *Generator) filterCandidates(teams []dataset.TeamMetrics, req Request) []dataset.TeamMetrics {
	excluded := make(map[int]bool, len(req.ExcludeTeams)+1)
	for _, t := range req.ExcludeTeams {
		excluded[t] = true
	}
	if req.YourTeam != 0 {
		excluded[req.YourTeam] = true
	}
	out := make([]dataset.TeamMetrics, 0, len(teams))
	for _, t := range teams {
		if !excluded[t.TeamNumber] {
			out = append(out, t)
		}
	}
	return out
}

// recoverMissing asks the model once more about teams the first pass dropped.
// Teams still absent after that are appended unranked so the picklist always
// covers every candidate.
func (g *Generator) recoverMissing(ctx context.Context, req Request, candidates []dataset.TeamMetrics, ranked []RankedTeam) ([]RankedTeam, []int) {
	seen := make(map[int]bool, len(ranked))
	for _, r := range ranked {
		seen[r.TeamNumber] = true
	}
	var missing []dataset.TeamMetrics
	for _, c := range candidates {
		if !seen[c.TeamNumber] {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return ranked, nil
	}
	g.logger.Warn("picklist missing teams after first pass",
		zap.String("event", req.EventKey),
		zap.Int("missing", len(missing)))

	var recoveredNums []int
	if extra, err := g.gpt.RankMissingTeams(ctx, req, missing, ranked); err != nil {
		g.logger.Warn("missing-team recovery call failed", zap.Error(err))
	} else {
		for _, r := range extra {
			if !seen[r.TeamNumber] {
				seen[r.TeamNumber] = true
				ranked = append(ranked, r)
				recoveredNums = append(recoveredNums, r.TeamNumber)
			}
		}
	}
	for _, c := range missing {
		if !seen[c.TeamNumber] {
			ranked = append(ranked, RankedTeam{
				TeamNumber: c.TeamNumber,
				Nickname:   c.Nickname,
				Score:      0,
				Reason:     "not ranked",
			})
		}
	}
	sort.Ints(recoveredNums)
	return ranked, recoveredNums
}

// reorder arranges team metrics in deterministic pre-rank order so the model
// sees strong candidates first and batches split along score lines.
func reorder(teams []dataset.TeamMetrics, prerank []analysis.TeamScore) []dataset.TeamMetrics {
	byNum := make(map[int]dataset.TeamMetrics, len(teams))
	for _, t := range teams {
		byNum[t.TeamNumber] = t
	}
	out := make([]dataset.TeamMetrics, 0, len(teams))
	for _, s := range prerank {
		if t, ok := byNum[s.TeamNumber]; ok {
			out = append(out, t)
		}
	}
	return out
}
