package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/sopmatch/internal/testmatches"
)

// Default configuration constants.
const (
	defaultNumSubmissions = 200
	defaultTopK           = 5
	defaultBatchSize      = 20
	defaultWorkers        = 2 // multiplier for runtime.NumCPU()
	defaultTimeout        = 30 * time.Second
	defaultTestTimeout    = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		submissions = flag.Int("submissions", defaultNumSubmissions, "Number of submissions to generate and store")
		topK        = flag.Int("top", defaultTopK, "top_k requested per match")
		batchSize   = flag.Int("batch", defaultBatchSize, "ids per batch request; 0 skips the batch pass")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile  = flag.String("output", "", "Output file for generated submissions")
		logFile     = flag.String("log", "", "Log file for test output (default: test_matches_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testmatches.ShowHelp()
		return
	}

	if err := testmatches.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &testmatches.Config{
		BaseURL:        *baseURL,
		NumSubmissions: *submissions,
		TopK:           *topK,
		BatchSize:      *batchSize,
		Workers:        max(*workers, 1),
		Timeout:        *timeout,
		OutputFile:     *outputFile,
		LogFile:        *logFile,
		Verbose:        *verbose,
	}

	if err := testmatches.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
