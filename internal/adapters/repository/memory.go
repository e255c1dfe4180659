package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/sopmatch/internal/domain/model"
	"github.com/okian/sopmatch/pkg/metrics"
)

// MemorySubmissionStore is a map-backed SubmissionStore.
type MemorySubmissionStore struct {
	mu   sync.RWMutex
	byID map[string]model.Submission
	opts storeOptions
}

// NewMemorySubmissionStore creates an empty in-memory store.
func NewMemorySubmissionStore(opts ...StoreOption) *MemorySubmissionStore {
	o := defaultStoreOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemorySubmissionStore{byID: make(map[string]model.Submission), opts: o}
}

func (m *MemorySubmissionStore) Put(_ context.Context, s model.Submission) (model.Submission, bool, error) {
	if err := validateSubmission(s); err != nil {
		return model.Submission{}, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.now()
	prev, exists := m.byID[s.ID]
	stored := model.Submission{
		ID:          s.ID,
		Text:        s.Text,
		Preferences: clonePreferences(s.Preferences),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if exists {
		stored.CreatedAt = prev.CreatedAt
	}
	m.byID[s.ID] = stored

	recordPut(!exists, len(m.byID))
	return copySubmission(stored), !exists, nil
}

func (m *MemorySubmissionStore) Get(_ context.Context, id string) (model.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.byID[id]
	if !ok {
		return model.Submission{}, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	return copySubmission(s), nil
}

func (m *MemorySubmissionStore) Count(context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

func (m *MemorySubmissionStore) Close() error { return nil }

func copySubmission(s model.Submission) model.Submission {
	s.Preferences = clonePreferences(s.Preferences)
	return s
}

func recordPut(created bool, total int) {
	if created {
		metrics.RecordSubmissionStored("created")
	} else {
		metrics.RecordSubmissionStored("replaced")
	}
	metrics.UpdateSubmissionsTotal(total)
}
