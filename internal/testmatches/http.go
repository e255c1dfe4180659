package testmatches

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/okian/sopmatch/internal/domain/types"
	"github.com/okian/sopmatch/pkg/logger"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// getJSON performs a GET request and decodes a 200 response into out.
func (c *HTTPClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, http.StatusOK, out)
}

// postJSON posts body as JSON and decodes a response with one of the wanted statuses into out.
func (c *HTTPClient) postJSON(ctx context.Context, url string, body, out any, want ...int) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	for _, w := range want {
		if resp.StatusCode == w {
			if out == nil {
				return resp.StatusCode, nil
			}
			return resp.StatusCode, json.Unmarshal(raw, out)
		}
	}
	return resp.StatusCode, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
}

func (c *HTTPClient) do(req *http.Request, want int, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// checkServiceHealth waits for /healthz to answer 200, backing off between attempts.
func checkServiceHealth(ctx context.Context, config *Config) error {
	log := logger.Get()
	log.Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	err := retry.Do(
		func() error { return client.getJSON(ctx, url, nil) },
		retry.Context(ctx),
		retry.Attempts(healthCheckAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(healthCheckDelay),
		retry.MaxDelay(healthCheckMaxDelay),
		retry.OnRetry(func(n uint, err error) {
			log.Warn(ctx, "health check failed; retrying",
				logger.Int("attempt", int(n)+1), logger.Error(err))
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("service unreachable at %s: %w", url, err)
	}

	log.Info(ctx, "service is healthy")
	return nil
}

// fetchReviewers returns the current reviewer pool.
func fetchReviewers(ctx context.Context, config *Config) ([]types.Reviewer, error) {
	var body struct {
		Reviewers []types.Reviewer `json:"reviewers"`
	}
	if err := newHTTPClient(config.Timeout).getJSON(ctx, config.BaseURL+"/reviewers", &body); err != nil {
		return nil, fmt.Errorf("list reviewers: %w", err)
	}
	return body.Reviewers, nil
}

// fanOut runs fn over n indices with config.Workers goroutines.
func fanOut(ctx context.Context, config *Config, n int, fn func(i int)) {
	work := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				if ctx.Err() != nil {
					continue
				}
				fn(i)
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			break feed
		case work <- i:
		}
	}
	close(work)
	wg.Wait()
}

// storeSubmissions posts every submission concurrently.
func storeSubmissions(ctx context.Context, config *Config, subs []Submission, stats *Stats) {
	log := logger.Get()
	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/submissions"

	var stored, failed int64
	fanOut(ctx, config, len(subs), func(i int) {
		if _, err := client.postJSON(ctx, url, subs[i], nil, http.StatusCreated, http.StatusOK); err != nil {
			atomic.AddInt64(&failed, 1)
			if config.Verbose {
				log.Warn(ctx, "store failed", logger.String("id", subs[i].ID), logger.Error(err))
			}
			return
		}
		atomic.AddInt64(&stored, 1)
	})

	stats.SubmissionsStored = int(stored)
	stats.SubmissionsFailed = int(failed)
	log.Info(ctx, "submissions stored",
		logger.Int("stored", stats.SubmissionsStored),
		logger.Int("failed", stats.SubmissionsFailed))
}

// retrieveMatches requests GET /matches/{id} for every submission.
func retrieveMatches(ctx context.Context, config *Config, subs []Submission, stats *Stats) []types.MatchResult {
	log := logger.Get()
	client := newHTTPClient(config.Timeout)
	results := make([]types.MatchResult, len(subs))

	var retrieved int64
	fanOut(ctx, config, len(subs), func(i int) {
		url := config.BaseURL + "/matches/" + subs[i].ID + "?top_k=" + strconv.Itoa(config.TopK)
		if err := client.getJSON(ctx, url, &results[i]); err != nil {
			results[i] = types.MatchResult{ID: subs[i].ID, TopK: config.TopK, Error: err.Error()}
			return
		}
		atomic.AddInt64(&retrieved, 1)
	})

	stats.MatchesRetrieved = int(retrieved)
	log.Info(ctx, "matches retrieved", logger.Int("count", stats.MatchesRetrieved))
	return results
}

// retrieveBatches requests POST /matches/batch in chunks of config.BatchSize.
// A 429 is logged and the chunk skipped.
func retrieveBatches(ctx context.Context, config *Config, subs []Submission, stats *Stats) []types.MatchResult {
	log := logger.Get()
	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/matches/batch"

	var results []types.MatchResult
	for start := 0; start < len(subs) && ctx.Err() == nil; start += config.BatchSize {
		end := min(start+config.BatchSize, len(subs))
		ids := make([]string, 0, end-start)
		for _, s := range subs[start:end] {
			ids = append(ids, s.ID)
		}

		var body struct {
			Results []types.MatchResult `json:"results"`
		}
		req := map[string]any{"ids": ids, "top_k": config.TopK}
		status, err := client.postJSON(ctx, url, req, &body, http.StatusOK)
		if err != nil {
			if status == http.StatusTooManyRequests {
				log.Warn(ctx, "batch rejected by backpressure", logger.Int("size", len(ids)))
				continue
			}
			log.Error(ctx, "batch request failed", logger.Error(err))
			continue
		}
		results = append(results, body.Results...)
	}

	stats.BatchResults = len(results)
	log.Info(ctx, "batch matches retrieved", logger.Int("count", stats.BatchResults))
	return results
}
