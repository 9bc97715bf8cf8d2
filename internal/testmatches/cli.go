package testmatches

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okabe/omiai/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "match_test_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the match test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Omiai Match Test Tool
=====================

A concurrent tool for exercising the omiai matchmaking service.

Usage:
  go run cmd/test-matches/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -users int
        Number of users to generate and register (default 200)
  -pairs int
        Number of pairs to sample for compatibility checks (default 500)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -radius float
        Radius in km for nearby queries (default: server default)
  -output string
        Output file for generated users (default: generated_users_TIMESTAMP.json)
  -log string
        Log file for test output (default: match_test_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/test-matches/main.go

  # Test with custom parameters
  go run cmd/test-matches/main.go -users 1000 -pairs 5000 -workers 16

  # Test against another instance with verbose output
  go run cmd/test-matches/main.go -url http://localhost:8080 -verbose

  # Test nearby queries with a fixed radius
  go run cmd/test-matches/main.go -radius 25
`)
}
