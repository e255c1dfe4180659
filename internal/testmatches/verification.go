package testmatches

import (
	"context"
	"fmt"

	"github.com/okian/sopmatch/internal/domain/types"
	"github.com/okian/sopmatch/pkg/logger"
)

// checkResult returns every ranking rule a match result breaks: length is
// min(topK, pool), scores and components lie in [0,1], scores never increase
// and ranks count from one.
func checkResult(res types.MatchResult, topK, poolSize int) []error {
	if res.Error != "" {
		return []error{fmt.Errorf("%s: request failed: %s", res.ID, res.Error)}
	}

	var errs []error
	if want := min(topK, poolSize); len(res.Matches) != want {
		errs = append(errs, fmt.Errorf("%s: got %d matches, want %d", res.ID, len(res.Matches), want))
	}

	for i, m := range res.Matches {
		if m.Rank != i+1 {
			errs = append(errs, fmt.Errorf("%s: match %d has rank %d", res.ID, i, m.Rank))
		}
		for name, v := range map[string]float64{
			"score":              m.Score,
			"content_similarity": m.Breakdown.ContentSimilarity,
			"expertise_match":    m.Breakdown.ExpertiseMatch,
			"availability":       m.Breakdown.Availability,
		} {
			if v < -scoreTolerance || v > 1+scoreTolerance {
				errs = append(errs, fmt.Errorf("%s: %s %s=%.6f outside [0,1]", res.ID, m.ReviewerID, name, v))
			}
		}
		if i > 0 && m.Score > res.Matches[i-1].Score+scoreTolerance {
			errs = append(errs, fmt.Errorf("%s: score rises at rank %d (%.6f > %.6f)",
				res.ID, i+1, m.Score, res.Matches[i-1].Score))
		}
	}
	return errs
}

// sameRanking reports whether two results list the same reviewers in the same order.
func sameRanking(a, b types.MatchResult) bool {
	if len(a.Matches) != len(b.Matches) {
		return false
	}
	for i := range a.Matches {
		if a.Matches[i].ReviewerID != b.Matches[i].ReviewerID {
			return false
		}
	}
	return true
}

// verifyResults checks single and batch results. Batch results must agree with
// the single-call ranking for the same id while no assignment changes load.
func verifyResults(ctx context.Context, config *Config, single, batch []types.MatchResult, stats *Stats) error {
	log := logger.Get()

	byID := make(map[string]types.MatchResult, len(single))
	for _, res := range single {
		byID[res.ID] = res
		for _, err := range checkResult(res, config.TopK, stats.PoolSize) {
			stats.Violations++
			log.Error(ctx, "ranking violation", logger.Error(err))
		}
	}

	for _, res := range batch {
		for _, err := range checkResult(res, config.TopK, stats.PoolSize) {
			stats.Violations++
			log.Error(ctx, "batch ranking violation", logger.Error(err))
		}
		if ref, ok := byID[res.ID]; ok && ref.Error == "" && !sameRanking(ref, res) {
			stats.Violations++
			log.Error(ctx, "batch ranking differs from single ranking", logger.String("id", res.ID))
		}
	}

	if stats.Violations > 0 {
		return fmt.Errorf("%d ranking violations", stats.Violations)
	}
	log.Info(ctx, "result verification completed", logger.Int("checked", len(single)+len(batch)))
	return nil
}
