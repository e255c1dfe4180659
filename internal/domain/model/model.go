// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Preferences are the optional hints a submitting party attaches to a submission.
type Preferences struct {
	Field       string // declared field/topic text, possibly comma-separated
	Priority    string // e.g. "normal", "high"
	ReviewDepth string // e.g. "standard", "in-depth"
}

// Submission is a Statement of Purpose waiting for reviewers.
// One submission exists per ID; storing it again replaces it.
type Submission struct {
	ID          string
	Text        string
	Preferences *Preferences
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DeclaredField returns the declared field text, or "" when no preferences were given.
func (s Submission) DeclaredField() string {
	if s.Preferences == nil {
		return ""
	}
	return s.Preferences.Field
}

// Reviewer is a domain-expert evaluator with a bounded capacity.
type Reviewer struct {
	ID          string
	Name        string
	Expertise   []string
	Notes       string
	MaxCapacity int
	CurrentLoad int
}

// Validate checks the reviewer record invariants: a non-empty id, a positive
// capacity and 0 <= CurrentLoad <= MaxCapacity.
func (r Reviewer) Validate() error {
	switch {
	case strings.TrimSpace(r.ID) == "":
		return fmt.Errorf("%w: missing id", ErrInvalidReviewer)
	case r.MaxCapacity <= 0:
		return fmt.Errorf("%w: reviewer %s has max capacity %d", ErrInvalidReviewer, r.ID, r.MaxCapacity)
	case r.CurrentLoad < 0 || r.CurrentLoad > r.MaxCapacity:
		return fmt.Errorf("%w: reviewer %s has load %d outside [0, %d]", ErrInvalidReviewer, r.ID, r.CurrentLoad, r.MaxCapacity)
	}
	return nil
}

// Profile is the comparable text of a reviewer: expertise tags followed by notes.
func (r Reviewer) Profile() string {
	parts := make([]string, 0, len(r.Expertise)+1)
	parts = append(parts, r.Expertise...)
	if notes := strings.TrimSpace(r.Notes); notes != "" {
		parts = append(parts, notes)
	}
	return strings.Join(parts, " ")
}

// Clone returns a copy that shares no slices with r.
func (r Reviewer) Clone() Reviewer {
	c := r
	if r.Expertise != nil {
		c.Expertise = append([]string(nil), r.Expertise...)
	}
	return c
}

// Breakdown holds the per-signal scores of one (submission, reviewer) pair.
// Every component lies in [0, 1].
type Breakdown struct {
	ContentSimilarity float64
	ExpertiseMatch    float64
	Availability      float64
}

// Match is one ranked reviewer together with the scores that placed it.
type Match struct {
	ReviewerID string
	Name       string
	Expertise  []string
	Score      float64
	Breakdown  Breakdown
}

// MatchJob asks a batch worker to rank Pool against Submission.
// Reply must be buffered so a worker never blocks on delivery.
type MatchJob struct {
	Submission Submission
	Pool       []Reviewer
	TopK       int
	Reply      chan<- MatchOutcome
}

// MatchOutcome is the result of a MatchJob.
type MatchOutcome struct {
	SubmissionID string
	Matches      []Match
	Err          error
}
