package testmatches

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/okabe/omiai/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
)

// Cluster hubs keep generated users close enough for proximity hits.
// Jitter spreads each hub over roughly a 40 km box.
const (
	hubJitterDegrees = 0.2
)

var clusterHubs = []Coordinates{
	{Lat: 35.6762, Lon: 139.6503}, // Tokyo
	{Lat: 34.6937, Lon: 135.5023}, // Osaka
	{Lat: 43.0618, Lon: 141.3545}, // Sapporo
	{Lat: 33.5904, Lon: 130.4017}, // Fukuoka
}

var interestPool = []string{
	"cooking", "hiking", "photography", "board games", "cinema",
	"running", "gardening", "karaoke", "travel", "calligraphy",
}

var traitPool = []string{
	"outgoing", "calm", "curious", "organized", "spontaneous", "patient",
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomIndex returns a random index below limit.
func getRandomIndex(limit int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	return int(n.Int64())
}

// generateUsers creates the specified number of users with unique ids.
func generateUsers(ctx context.Context, config *Config, stats *Stats) ([]TestUser, error) {
	logger.Get().Info(ctx, "generating users with unique ids", logger.Int("numUsers", config.NumUsers))

	users := make([]TestUser, config.NumUsers)

	// Pre-allocate ids to ensure uniqueness
	ids := make([]string, config.NumUsers)
	for i := 0; i < config.NumUsers; i++ {
		ids[i] = uuid.New().String()
	}

	// Generate users concurrently
	type userResult struct {
		index int
		user  TestUser
		err   error
	}

	resultChan := make(chan userResult, config.NumUsers)

	// Use worker pool for user generation
	workerCount := minInt(config.Workers, config.NumUsers)
	usersPerWorker := config.NumUsers / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * usersPerWorker
		end := start + usersPerWorker
		if worker == workerCount-1 {
			end = config.NumUsers // Last worker gets remaining users
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- userResult{index: i, err: ctx.Err()}
					return
				default:
					resultChan <- userResult{index: i, user: generateSingleUser(i, ids[i])}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < config.NumUsers; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during user generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate user %d: %w", result.index, result.err)
			}
			users[result.index] = result.user
		}
	}

	stats.UsersGenerated = len(users)
	logger.Get().Info(ctx, "generated users successfully", logger.Int("count", len(users)))

	return users, nil
}

// generateSingleUser creates a single user with the given index and id.
func generateSingleUser(index int, id string) TestUser {
	hub := clusterHubs[getRandomIndex(len(clusterHubs))]
	location := Coordinates{
		Lat: hub.Lat + (getRandomFloat()*2-1)*hubJitterDegrees,
		Lon: hub.Lon + (getRandomFloat()*2-1)*hubJitterDegrees,
	}

	return TestUser{
		ID:        id,
		Name:      fmt.Sprintf("tester-%d", index),
		Location:  &location,
		Interests: pickStrings(interestPool, 2+getRandomIndex(3)),
		Traits:    pickStrings(traitPool, 1+getRandomIndex(3)),
	}
}

// pickStrings selects count distinct entries from pool.
func pickStrings(pool []string, count int) []string {
	if count > len(pool) {
		count = len(pool)
	}
	picked := make([]string, 0, count)
	used := make(map[int]bool, count)
	for len(picked) < count {
		idx := getRandomIndex(len(pool))
		if used[idx] {
			continue
		}
		used[idx] = true
		picked = append(picked, pool[idx])
	}
	return picked
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
