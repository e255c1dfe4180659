// Package repository holds the reviewer registry and submission stores.
package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/okian/sopmatch/internal/domain/model"
	"github.com/okian/sopmatch/pkg/logger"
	"github.com/okian/sopmatch/pkg/metrics"
)

// Snapshot is an immutable, point-in-time view of the reviewer pool.
// Every registry mutation publishes a new Snapshot; existing ones never change.
type Snapshot struct {
	Version   uint64
	reviewers []model.Reviewer
	byID      map[string]int
}

func newSnapshot(version uint64, reviewers []model.Reviewer) *Snapshot {
	byID := make(map[string]int, len(reviewers))
	for i, r := range reviewers {
		byID[r.ID] = i
	}
	return &Snapshot{Version: version, reviewers: reviewers, byID: byID}
}

// Reviewers returns the pool in catalog order. The slice is shared and must
// not be modified.
func (s *Snapshot) Reviewers() []model.Reviewer {
	return s.reviewers
}

// Get returns a copy of the reviewer with id.
func (s *Snapshot) Get(id string) (model.Reviewer, bool) {
	i, ok := s.byID[id]
	if !ok {
		return model.Reviewer{}, false
	}
	return s.reviewers[i].Clone(), true
}

// Len is the pool size.
func (s *Snapshot) Len() int {
	return len(s.reviewers)
}

// Registry is the in-memory reviewer catalog. Reads are lock-free through
// the current snapshot; mutations are serialized and copy-on-write.
type Registry struct {
	mu       sync.Mutex
	snapshot atomic.Pointer[Snapshot]
	logger   logger.Logger
}

// NewRegistry validates reviewers and seeds a registry with them, keeping their order.
func NewRegistry(reviewers []model.Reviewer, opts ...Option) (*Registry, error) {
	r := &Registry{logger: logger.Nop()}
	for _, opt := range opts {
		opt(r)
	}

	seeded := make([]model.Reviewer, 0, len(reviewers))
	seen := make(map[string]struct{}, len(reviewers))
	for _, rv := range reviewers {
		if err := rv.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[rv.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateReviewer, rv.ID)
		}
		seen[rv.ID] = struct{}{}
		seeded = append(seeded, rv.Clone())
	}

	r.publish(newSnapshot(1, seeded))
	return r, nil
}

// Snapshot returns the current immutable view.
func (r *Registry) Snapshot() *Snapshot {
	return r.snapshot.Load()
}

// Get returns the reviewer with id from the current snapshot.
func (r *Registry) Get(_ context.Context, id string) (model.Reviewer, error) {
	rv, ok := r.Snapshot().Get(id)
	if !ok {
		return model.Reviewer{}, fmt.Errorf("reviewer %s: %w", id, ErrNotFound)
	}
	return rv, nil
}

// Count returns the pool size.
func (r *Registry) Count() int {
	return r.Snapshot().Len()
}

// Assign adds one unit of load to a reviewer. A reviewer already at capacity
// is rejected with ErrCapacityExceeded.
func (r *Registry) Assign(ctx context.Context, id string) (model.Reviewer, error) {
	return r.mutate(ctx, id, func(rv *model.Reviewer) error {
		if rv.CurrentLoad >= rv.MaxCapacity {
			return fmt.Errorf("reviewer %s (%d/%d): %w", rv.ID, rv.CurrentLoad, rv.MaxCapacity, ErrCapacityExceeded)
		}
		rv.CurrentLoad++
		return nil
	})
}

// Release removes one unit of load from a reviewer.
func (r *Registry) Release(ctx context.Context, id string) (model.Reviewer, error) {
	return r.mutate(ctx, id, func(rv *model.Reviewer) error {
		if rv.CurrentLoad <= 0 {
			return fmt.Errorf("reviewer %s: %w", rv.ID, ErrNoLoad)
		}
		rv.CurrentLoad--
		return nil
	})
}

// mutate applies fn to a copy of reviewer id and publishes a new snapshot
// when fn succeeds and the result still validates.
func (r *Registry) mutate(ctx context.Context, id string, fn func(*model.Reviewer) error) (model.Reviewer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snapshot.Load()
	i, ok := cur.byID[id]
	if !ok {
		return model.Reviewer{}, fmt.Errorf("reviewer %s: %w", id, ErrNotFound)
	}

	next := make([]model.Reviewer, len(cur.reviewers))
	copy(next, cur.reviewers)
	updated := next[i].Clone()
	if err := fn(&updated); err != nil {
		return model.Reviewer{}, err
	}
	if err := updated.Validate(); err != nil {
		return model.Reviewer{}, err
	}
	next[i] = updated

	r.publish(&Snapshot{Version: cur.Version + 1, reviewers: next, byID: cur.byID})
	r.logger.Debug(ctx, "reviewer load changed",
		logger.String("reviewer_id", id),
		logger.Int("load", updated.CurrentLoad),
		logger.Int("capacity", updated.MaxCapacity),
	)
	return updated.Clone(), nil
}

func (r *Registry) publish(s *Snapshot) {
	r.snapshot.Store(s)
	metrics.RecordRegistrySnapshot(s.Version)
	metrics.UpdatePoolSize(s.Len())
}
