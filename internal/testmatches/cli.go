package testmatches

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/sopmatch/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging initializes the logger to write to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		logFile = "test_matches_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the match test tool.
func ShowHelp() {
	os.Stdout.WriteString(`sopmatch Match Test Tool
========================

Stores generated Statements of Purpose in a running sopmatch service,
requests reviewer matches for each one and checks the ranking rules:
length is min(top_k, pool), every score lies in [0,1], scores never
increase, and batch results agree with single-call results.

Usage:
  go run ./cmd/test-matches [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -submissions int
        Number of submissions to generate and store (default 200)
  -top int
        top_k requested per match (default 5)
  -batch int
        ids per batch request; 0 skips the batch pass (default 20)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated submissions (default: none)
  -log string
        Log file for test output (default: test_matches_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  go run ./cmd/test-matches -submissions 1000 -workers 16
  go run ./cmd/test-matches -url http://localhost:8080 -top 3 -batch 0
`)
}
