package testmatches

import (
	"time"

	"github.com/okian/sopmatch/internal/domain/types"
)

// Config holds configuration for the match smoke test
type Config struct {
	BaseURL        string        // Base URL of the service
	NumSubmissions int           // Number of submissions to generate
	TopK           int           // top_k requested per match
	BatchSize      int           // ids per POST /matches/batch; 0 disables the batch pass
	Workers        int           // Number of concurrent workers
	Timeout        time.Duration // HTTP request timeout
	OutputFile     string        // Output file for generated submissions
	LogFile        string        // Log file for test output
	Verbose        bool          // Enable verbose logging
}

// Submission is the body posted to /submissions.
type Submission struct {
	ID          string             `json:"id"`
	Text        string             `json:"text"`
	Preferences *types.Preferences `json:"preferences,omitempty"`
}

// Stats holds test statistics
type Stats struct {
	SubmissionsGenerated int
	SubmissionsStored    int
	SubmissionsFailed    int
	MatchesRetrieved     int
	BatchResults         int
	Violations           int
	PoolSize             int
	StartTime            time.Time
	EndTime              time.Time
	Duration             time.Duration
}
