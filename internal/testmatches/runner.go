package testmatches

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okabe/omiai/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete matchmaking test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting omiai match test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("users", config.NumUsers),
		logger.Int("pairs", config.NumPairs),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Float64("radiusKm", config.RadiusKm),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate users
	users, err := generateUsers(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("user generation failed: %w", err)
	}

	// Step 3: Register users, grant consent, save locations
	if err := registerUsers(ctx, config, users, stats); err != nil {
		return fmt.Errorf("user registration failed: %w", err)
	}

	// Step 4: Score sampled pairs and attempt matches
	checks, err := checkPairs(ctx, config, users, stats)
	if err != nil {
		return fmt.Errorf("pair checking failed: %w", err)
	}

	// Step 5: Exercise the nearby finder
	if err := runNearbyQueries(ctx, config, users, stats); err != nil {
		return fmt.Errorf("nearby queries failed: %w", err)
	}

	// Step 6: Verify engine invariants
	if err := verifyResults(ctx, config, checks, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 7: Save generated users to file
	if err := saveUsersToFile(ctx, config, users); err != nil {
		logger.Get().Warn(ctx, "failed to save users to file", logger.Error(err))
	}

	// Step 8: Report the service counters
	if serviceStats, err := fetchServiceStats(ctx, config); err != nil {
		logger.Get().Warn(ctx, "failed to fetch service stats", logger.Error(err))
	} else {
		logger.Get().Info(ctx, "service counters",
			logger.Any("users", serviceStats["users"]),
			logger.Any("meetings", serviceStats["meetings"]),
			logger.Any("consentsGranted", serviceStats["consentsGranted"]),
			logger.Any("blocked", serviceStats["blocked"]))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	if stats.InvariantViolations > 0 {
		return fmt.Errorf("%d invariant violations detected", stats.InvariantViolations)
	}

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveUsersToFile saves the generated users to a JSON file.
func saveUsersToFile(ctx context.Context, config *Config, users []TestUser) error {
	if len(users) == 0 {
		return fmt.Errorf("no users to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_users_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write users to file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write JSON array
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, user := range users {
		jsonData, err := marshalJSON(user)
		if err != nil {
			return fmt.Errorf("failed to marshal user %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write user %d: %w", i, err)
		}

		// Add comma except for last user
		if i < len(users)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "users saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var registrationRate, pairsPerSecond float64

	if stats.UsersGenerated > 0 {
		registrationRate = float64(stats.UsersRegistered) / float64(stats.UsersGenerated) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		pairsPerSecond = float64(stats.PairsChecked) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("usersGenerated", stats.UsersGenerated),
		logger.Int("usersRegistered", stats.UsersRegistered),
		logger.Int("registrationsFailed", stats.RegistrationsFailed),
		logger.Int("consentsGranted", stats.ConsentsGranted),
		logger.Int("locationsSaved", stats.LocationsSaved),
		logger.Int("pairsChecked", stats.PairsChecked),
		logger.Int("meetingsScheduled", stats.MeetingsScheduled),
		logger.Int("pairsDeclined", stats.PairsDeclined),
		logger.Int("checksFailed", stats.ChecksFailed),
		logger.Int("nearbyQueries", stats.NearbyQueries),
		logger.Int("invariantViolations", stats.InvariantViolations),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("registrationRate", registrationRate),
		logger.Float64("pairsPerSecond", pairsPerSecond))
}
