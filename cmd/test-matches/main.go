package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okabe/omiai/internal/testmatches"
)

// Default configuration constants.
const (
	defaultNumUsers    = 200
	defaultNumPairs    = 500
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numUsers   = flag.Int("users", defaultNumUsers, "Number of users to generate and register")
		numPairs   = flag.Int("pairs", defaultNumPairs, "Number of pairs to sample for compatibility checks")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		radiusKm   = flag.Float64("radius", 0, "Radius in km for nearby queries (0 uses the server default)")
		outputFile = flag.String("output", "", "Output file for generated users (default: generated_users_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for test output (default: match_test_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testmatches.ShowHelp()
		return
	}

	// Setup logging
	if err := testmatches.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &testmatches.Config{
		BaseURL:    *baseURL,
		NumUsers:   *numUsers,
		NumPairs:   *numPairs,
		Workers:    *workers,
		Timeout:    *timeout,
		RadiusKm:   *radiusKm,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	// Run the test
	if err := testmatches.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
