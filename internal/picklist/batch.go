package picklist

import (
	"context"
	"fmt"
	"time"

	"gridscout/internal/dataset"
	"gridscout/internal/logging"

	"go.uber.org/zap"
)

// BatchProcessor splits large candidate sets across multiple LLM calls and
// renormalizes scores so batches land on one comparable scale. Reference
// teams are included in every batch; the ratio of their mean scores between
// batch 1 and batch k is the normalization factor for batch k.
type BatchProcessor struct {
	gpt       *GPTService
	batchSize int
	// delay paces sequential LLM calls for rate-limit headroom.
	delay time.Duration
	// onBatch, when set, receives (completed, total) after each batch.
	onBatch func(done, total int)
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(gpt *GPTService, batchSize int, delay time.Duration) *BatchProcessor {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &BatchProcessor{gpt: gpt, batchSize: batchSize, delay: delay}
}

// OnBatch registers a progress callback.
func (b *BatchProcessor) OnBatch(fn func(done, total int)) { b.onBatch = fn }

// Process ranks teams in batches. referenceNums selects the shared anchor
// teams; they are pulled out of the candidate stream and appended to every
// batch. Returns the merged ranking and the number of batches issued.
func (b *BatchProcessor) Process(ctx context.Context, req Request, teams []dataset.TeamMetrics, referenceNums []int) ([]RankedTeam, int, error) {
	log := logging.Get(logging.CategoryPicklist)

	refSet := make(map[int]bool, len(referenceNums))
	for _, n := range referenceNums {
		refSet[n] = true
	}
	var refs, rest []dataset.TeamMetrics
	for _, tm := range teams {
		if refSet[tm.TeamNumber] {
			refs = append(refs, tm)
		} else {
			rest = append(rest, tm)
		}
	}

	batches := splitBatches(rest, b.batchSize)
	total := len(batches)
	log.Info("batched ranking start",
		zap.Int("teams", len(teams)),
		zap.Int("batches", total),
		zap.Int("references", len(refs)))

	var merged []RankedTeam
	var anchorMean float64

	for i, batch := range batches {
		if i > 0 && b.delay > 0 {
			select {
			case <-time.After(b.delay):
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			}
		}

		ranked, err := b.gpt.RankTeams(ctx, req, append(append([]dataset.TeamMetrics(nil), batch...), refs...))
		if err != nil {
			return nil, 0, fmt.Errorf("batch %d/%d failed: %w", i+1, total, err)
		}

		refMean := meanScore(ranked, refSet)
		if i == 0 {
			anchorMean = refMean
			merged = append(merged, ranked...)
		} else {
			factor := 1.0
			if anchorMean > 0 && refMean > 0 {
				factor = anchorMean / refMean
			}
			for _, rt := range ranked {
				if refSet[rt.TeamNumber] {
					// Keep the batch-1 reference entries authoritative.
					continue
				}
				rt.Score = clampScore(rt.Score * factor)
				merged = append(merged, rt)
			}
			log.Debug("batch normalized",
				zap.Int("batch", i+1),
				zap.Float64("factor", factor))
		}

		if b.onBatch != nil {
			b.onBatch(i+1, total)
		}
	}

	merged = dedupeKeepHigher(merged)
	return merged, total, nil
}

// splitBatches slices teams into runs of size; the last run may be short.
func splitBatches(teams []dataset.TeamMetrics, size int) [][]dataset.TeamMetrics {
	if len(teams) == 0 {
		return nil
	}
	var out [][]dataset.TeamMetrics
	for start := 0; start < len(teams); start += size {
		end := start + size
		if end > len(teams) {
			end = len(teams)
		}
		out = append(out, teams[start:end])
	}
	return out
}

// meanScore averages the scores of the reference teams present in a batch
// result.
func meanScore(ranked []RankedTeam, refSet map[int]bool) float64 {
	var sum float64
	var n int
	for _, rt := range ranked {
		if refSet[rt.TeamNumber] {
			sum += rt.Score
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func clampScore(s float64) float64 {
	if s <= 0 {
		return 1
	}
	if s > 100 {
		return 100
	}
	return s
}
