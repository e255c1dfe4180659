package testmatches

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/sopmatch/internal/domain/types"
	"github.com/okian/sopmatch/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete match smoke test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting sopmatch match test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("submissions", config.NumSubmissions),
		logger.Int("workers", config.Workers),
		logger.Int("topK", config.TopK),
		logger.Int("batchSize", config.BatchSize),
		logger.String("timeout", config.Timeout.String()),
		logger.Bool("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Read the pool so result lengths can be checked
	reviewers, err := fetchReviewers(ctx, config)
	if err != nil {
		return err
	}
	stats.PoolSize = len(reviewers)

	// Step 3: Generate and store submissions
	subs := generateSubmissions(ctx, config, stats)
	storeSubmissions(ctx, config, subs, stats)
	if stats.SubmissionsStored == 0 && len(subs) > 0 {
		return errors.New("no submission was stored")
	}

	// Step 4: Match every submission, singly then in batches
	single := retrieveMatches(ctx, config, subs, stats)
	var batch []types.MatchResult
	if config.BatchSize > 0 {
		batch = retrieveBatches(ctx, config, subs, stats)
	}

	// Step 5: Verify ranking rules
	verifyErr := verifyResults(ctx, config, single, batch, stats)

	// Step 6: Save submissions to file
	if config.OutputFile != "" {
		if err := saveSubmissionsToFile(ctx, config.OutputFile, subs); err != nil {
			log.Warn(ctx, "failed to save submissions to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	if verifyErr != nil {
		return fmt.Errorf("result verification failed: %w", verifyErr)
	}
	log.Info(ctx, "test completed successfully")
	return nil
}

// saveSubmissionsToFile writes the generated submissions as a JSON array.
func saveSubmissionsToFile(ctx context.Context, filename string, subs []Submission) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal submissions: %w", err)
	}
	if err := os.WriteFile(filename, data, logFilePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "submissions saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final test statistics.
func displayFinalStats(stats *Stats) {
	var storeRate, matchesPerSecond float64
	if stats.SubmissionsGenerated > 0 {
		storeRate = float64(stats.SubmissionsStored) / float64(stats.SubmissionsGenerated) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		matchesPerSecond = float64(stats.MatchesRetrieved+stats.BatchResults) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("poolSize", stats.PoolSize),
		logger.Int("submissionsGenerated", stats.SubmissionsGenerated),
		logger.Int("submissionsStored", stats.SubmissionsStored),
		logger.Int("submissionsFailed", stats.SubmissionsFailed),
		logger.Int("matchesRetrieved", stats.MatchesRetrieved),
		logger.Int("batchResults", stats.BatchResults),
		logger.Int("violations", stats.Violations),
		logger.Duration("duration", stats.Duration),
		logger.Float64("storeRate", storeRate),
		logger.Float64("matchesPerSecond", matchesPerSecond))
}
