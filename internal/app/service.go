// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	matchqueue "github.com/okian/sopmatch/internal/adapters/mq/queue"
	workerpool "github.com/okian/sopmatch/internal/adapters/mq/worker"
	"github.com/okian/sopmatch/internal/adapters/repository"
	"github.com/okian/sopmatch/internal/domain/dedupe"
	"github.com/okian/sopmatch/internal/domain/matching"
	"github.com/okian/sopmatch/internal/domain/model"
	"github.com/okian/sopmatch/internal/domain/scoring"
	"github.com/okian/sopmatch/internal/domain/textnorm"
	"github.com/okian/sopmatch/internal/domain/types"
	"github.com/okian/sopmatch/pkg/logger"
	"github.com/okian/sopmatch/pkg/metrics"
)

// matchingAdapter adapts matching.Matcher to worker.Ranker.
type matchingAdapter struct {
	matcher *matching.Matcher
}

func (a *matchingAdapter) Rank(ctx context.Context, sub model.Submission, pool []model.Reviewer, topK int) ([]model.Match, error) {
	return a.matcher.Match(ctx, matching.QueryFor(sub), pool, topK)
}

// Service implements the API dependencies for reviewer matching.
type Service struct {
	mu sync.RWMutex

	// Core components
	registry   *repository.Registry
	store      repository.SubmissionStore
	deduper    dedupe.Deduper
	matcher    *matching.Matcher
	batchQueue *matchqueue.InMemoryQueue
	workerPool *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	ngramMax    int
	stopWords   bool
	weights     scoring.Weights
	reviewers   []model.Reviewer

	// State
	started bool
	cancel  context.CancelFunc

	// ledgerMu serializes Assign and Release so the ledger never holds more
	// entries than the pool's total capacity.
	ledgerMu sync.Mutex

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of batch worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the batch queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the assignment ledger. Zero means unbounded. A bound
// below the pool's total capacity is rejected by Start.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWeights sets the score fusion weights. Start validates them.
func WithWeights(w scoring.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithNGramMax sets the largest n-gram used as a text feature.
func WithNGramMax(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.ngramMax = n
		}
	}
}

// WithStopWords enables English stop-word removal.
func WithStopWords(enabled bool) Option {
	return func(s *Service) {
		s.stopWords = enabled
	}
}

// WithReviewers seeds the registry.
func WithReviewers(reviewers []model.Reviewer) Option {
	return func(s *Service) {
		s.reviewers = reviewers
	}
}

// WithSubmissionStore replaces the default in-memory submission store.
// The service closes it on Stop.
func WithSubmissionStore(store repository.SubmissionStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		dedupeSize:  0,
		ngramMax:    2,
		weights:     scoring.DefaultWeights(),
		logger:      nil, // replaced in Start
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting matching service...")

	scorer, err := scoring.NewWeightedScorer(scoring.WithWeights(s.weights))
	if err != nil {
		return fmt.Errorf("%w: %w", matching.ErrInvalidInput, err)
	}

	if total := totalCapacity(s.reviewers); s.dedupeSize > 0 && s.dedupeSize < total {
		return fmt.Errorf("%w: dedupe size %d below total reviewer capacity %d",
			matching.ErrInvalidInput, s.dedupeSize, total)
	}

	registry, err := repository.NewRegistry(s.reviewers, repository.WithLogger(s.logger.Named("registry")))
	if err != nil {
		return fmt.Errorf("seed registry: %w", err)
	}
	s.registry = registry

	if s.store == nil {
		s.store = repository.NewMemorySubmissionStore()
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.matcher = matching.New(
		matching.WithScorer(scorer),
		matching.WithNGramMax(s.ngramMax),
		matching.WithNormalizer(textnorm.New(textnorm.WithStopWords(s.stopWords))),
		matching.WithLogger(s.logger.Named("matcher")),
	)

	s.batchQueue = matchqueue.NewInMemoryQueue(matchqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.batchQueue, &matchingAdapter{matcher: s.matcher},
		workerpool.WithPoolLogger(s.logger))
	// Workers outlive the start-up context and stop on Stop.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "matching service started",
		logger.Int("reviewers", registry.Count()),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping matching service...")

	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	s.cancel()
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "submission store close failed", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "matching service stopped")
}

// PutSubmission stores or replaces a submission. It reports whether the
// submission was newly created.
func (s *Service) PutSubmission(ctx context.Context, in types.Submission) (types.Submission, bool, error) {
	stored, created, err := s.store.Put(ctx, fromTypesSubmission(in))
	if err != nil {
		return types.Submission{}, false, err
	}
	s.logger.Debug(ctx, "submission stored",
		logger.String("submission_id", stored.ID),
		logger.Bool("created", created),
	)
	return toTypesSubmission(stored), created, nil
}

// Submission returns a stored submission.
func (s *Service) Submission(ctx context.Context, id string) (types.Submission, error) {
	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return types.Submission{}, err
	}
	return toTypesSubmission(sub), nil
}

// Match ranks the current reviewer snapshot against a stored submission.
func (s *Service) Match(ctx context.Context, id string, topK int) (types.MatchResult, error) {
	start := time.Now()

	sub, err := s.store.Get(ctx, id)
	if err != nil {
		metrics.RecordMatchRequest("not_found")
		return types.MatchResult{}, err
	}

	snap := s.registry.Snapshot()
	matches, stats, err := s.matcher.MatchWithStats(ctx, matching.QueryFor(sub), snap.Reviewers(), topK)
	if err != nil {
		metrics.RecordMatchRequest("invalid")
		return types.MatchResult{}, err
	}

	metrics.RecordMatchRequest("ok")
	metrics.RecordMatchLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordVocabularySize(stats.VocabularySize)
	if len(matches) > 0 {
		metrics.RecordTopScore(matches[0].Score)
	}
	s.logger.Debug(ctx, "matched submission",
		logger.String("submission_id", id),
		logger.Int("top_k", topK),
		logger.Int("returned", len(matches)),
		logger.Any("snapshot_version", snap.Version),
	)

	return toMatchResult(id, topK, matches), nil
}

// MatchBatch ranks several submissions on the worker pool. Every job reads
// the same registry snapshot. Unknown ids are reported per result. If the
// queue cannot take the whole batch the call fails with queue.ErrFull.
func (s *Service) MatchBatch(ctx context.Context, ids []string, topK int) ([]types.MatchResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", matching.ErrInvalidInput, topK)
	}

	snap := s.registry.Snapshot()
	results := make([]types.MatchResult, len(ids))
	replies := make([]chan model.MatchOutcome, len(ids))

	for i, id := range ids {
		results[i] = types.MatchResult{ID: id, TopK: topK, Matches: []types.Match{}}

		sub, err := s.store.Get(ctx, id)
		if err != nil {
			results[i].Error = err.Error()
			continue
		}

		reply := make(chan model.MatchOutcome, 1)
		job := model.MatchJob{Submission: sub, Pool: snap.Reviewers(), TopK: topK, Reply: reply}
		if !s.batchQueue.Enqueue(ctx, job) {
			metrics.RecordMatchRequest("backpressure")
			return nil, fmt.Errorf("batch of %d: %w", len(ids), matchqueue.ErrFull)
		}
		replies[i] = reply
	}

	for i, reply := range replies {
		if reply == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("batch match: %w", ctx.Err())
		case out := <-reply:
			if out.Err != nil {
				metrics.RecordMatchRequest("invalid")
				results[i].Error = out.Err.Error()
				continue
			}
			metrics.RecordMatchRequest("ok")
			results[i] = toMatchResult(ids[i], topK, out.Matches)
		}
	}
	return results, nil
}

// Reviewers returns the current registry snapshot in catalog order.
func (s *Service) Reviewers(_ context.Context) []types.Reviewer {
	pool := s.registry.Snapshot().Reviewers()
	out := make([]types.Reviewer, len(pool))
	for i, r := range pool {
		out[i] = toTypesReviewer(r)
	}
	return out
}

// Assign records an assignment and adds load to its reviewer. Repeating an
// assignment id returns the original assignment with duplicate set and does
// not change load. An empty assignment id is replaced with a generated one.
func (s *Service) Assign(ctx context.Context, a types.Assignment) (types.Assignment, bool, error) {
	if strings.TrimSpace(a.AssignmentID) == "" {
		a.AssignmentID = uuid.NewString()
	}
	switch {
	case strings.TrimSpace(a.ReviewerID) == "":
		return types.Assignment{}, false, fmt.Errorf("%w: missing reviewer_id", matching.ErrInvalidInput)
	case strings.TrimSpace(a.SubmissionID) == "":
		return types.Assignment{}, false, fmt.Errorf("%w: missing submission_id", matching.ErrInvalidInput)
	}
	if _, err := s.store.Get(ctx, a.SubmissionID); err != nil {
		return types.Assignment{}, false, err
	}

	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	if prev, seen := s.deduper.Lookup(ctx, a.AssignmentID); seen {
		metrics.RecordAssignment("duplicate")
		orig := decodeAssignment(a.AssignmentID, prev)
		if r, err := s.registry.Get(ctx, orig.ReviewerID); err == nil {
			orig.CurrentLoad, orig.MaxCapacity = r.CurrentLoad, r.MaxCapacity
		}
		return orig, true, nil
	}

	r, err := s.registry.Assign(ctx, a.ReviewerID)
	if err != nil {
		metrics.RecordAssignment("rejected")
		return types.Assignment{}, false, err
	}
	// Recorded after the load change; live entries never exceed total capacity.
	s.deduper.SeenAndRecord(ctx, a.AssignmentID, encodeAssignment(a))

	metrics.RecordAssignment("assigned")
	s.logger.Info(ctx, "reviewer assigned",
		logger.String("assignment_id", a.AssignmentID),
		logger.String("reviewer_id", a.ReviewerID),
		logger.String("submission_id", a.SubmissionID),
	)
	a.CurrentLoad, a.MaxCapacity = r.CurrentLoad, r.MaxCapacity
	return a, false, nil
}

// Release undoes an assignment and removes one unit of load from its reviewer.
func (s *Service) Release(ctx context.Context, assignmentID string) (types.Assignment, error) {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	value, ok := s.deduper.Unrecord(ctx, assignmentID)
	if !ok {
		return types.Assignment{}, fmt.Errorf("assignment %s: %w", assignmentID, repository.ErrNotFound)
	}
	a := decodeAssignment(assignmentID, value)

	r, err := s.registry.Release(ctx, a.ReviewerID)
	if err != nil {
		s.deduper.SeenAndRecord(ctx, assignmentID, value)
		metrics.RecordAssignment("rejected")
		return types.Assignment{}, err
	}

	metrics.RecordAssignment("released")
	s.logger.Info(ctx, "reviewer released",
		logger.String("assignment_id", assignmentID),
		logger.String("reviewer_id", a.ReviewerID),
	)
	a.CurrentLoad, a.MaxCapacity = r.CurrentLoad, r.MaxCapacity
	return a, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		snap := s.registry.Snapshot()
		submissions := s.store.Count(ctx)

		stats["queueLength"] = s.batchQueue.Len(ctx)
		stats["reviewers"] = snap.Len()
		stats["snapshotVersion"] = snap.Version
		stats["submissions"] = submissions
		stats["activeAssignments"] = s.deduper.Size()

		metrics.UpdatePoolSize(snap.Len())
		metrics.UpdateSubmissionsTotal(submissions)
	}

	return stats
}

func totalCapacity(reviewers []model.Reviewer) int {
	total := 0
	for _, r := range reviewers {
		total += r.MaxCapacity
	}
	return total
}
