package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/sopmatch/internal/domain/model"
)

// SubmissionStore keeps one submission per ID.
type SubmissionStore interface {
	// Put stores s, replacing any submission with the same ID. It reports
	// whether the submission was newly created.
	Put(ctx context.Context, s model.Submission) (model.Submission, bool, error)

	// Get returns the submission with id or ErrNotFound.
	Get(ctx context.Context, id string) (model.Submission, error)

	// Count returns the number of stored submissions.
	Count(ctx context.Context) int

	Close() error
}

// validateSubmission rejects submissions without an ID or with blank text.
func validateSubmission(s model.Submission) error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrInvalidID
	}
	if strings.TrimSpace(s.Text) == "" {
		return fmt.Errorf("submission %s: %w", s.ID, ErrEmptyText)
	}
	return nil
}

func clonePreferences(p *model.Preferences) *model.Preferences {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
