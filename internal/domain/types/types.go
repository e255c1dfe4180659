// Package types contains the read/write shapes shared by the service and HTTP layers.
package types

import "time"

// Preferences are optional submission hints.
type Preferences struct {
	Field       string `json:"field,omitempty"`
	Priority    string `json:"priority,omitempty"`
	ReviewDepth string `json:"review_depth,omitempty"`
}

// Submission is a stored Statement of Purpose.
type Submission struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	Preferences *Preferences `json:"preferences,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Breakdown exposes every signal behind a composite score.
type Breakdown struct {
	ContentSimilarity float64 `json:"content_similarity"`
	ExpertiseMatch    float64 `json:"expertise_match"`
	Availability      float64 `json:"availability"`
}

// Match is one ranked reviewer.
type Match struct {
	Rank       int       `json:"rank"`
	ReviewerID string    `json:"reviewer_id"`
	Name       string    `json:"name"`
	Expertise  []string  `json:"expertise"`
	Score      float64   `json:"score"`
	Breakdown  Breakdown `json:"breakdown"`
}

// MatchResult is the ranked list for one submission.
type MatchResult struct {
	ID      string  `json:"id"`
	TopK    int     `json:"top_k"`
	Matches []Match `json:"matches"`
	Error   string  `json:"error,omitempty"`
}

// Reviewer is a registry entry as exposed over the API.
type Reviewer struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Expertise   []string `json:"expertise"`
	Notes       string   `json:"notes,omitempty"`
	MaxCapacity int      `json:"max_capacity"`
	CurrentLoad int      `json:"current_load"`
}

// Assignment links a reviewer to a submission.
type Assignment struct {
	AssignmentID string `json:"assignment_id"`
	ReviewerID   string `json:"reviewer_id"`
	SubmissionID string `json:"submission_id"`
	CurrentLoad  int    `json:"current_load"`
	MaxCapacity  int    `json:"max_capacity"`
}
