package testmatches

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// samplePairs draws the requested number of distinct-member pairs from the
// registered users.
func samplePairs(users []TestUser, count int) [][2]string {
	pairs := make([][2]string, 0, count)
	if len(users) < 2 {
		return pairs
	}
	for len(pairs) < count {
		a := getRandomIndex(len(users))
		b := getRandomIndex(len(users))
		if a == b {
			continue
		}
		pairs = append(pairs, [2]string{users[a].ID, users[b].ID})
	}
	return pairs
}

// checkPairs scores sampled pairs in both directions and attempts a match
// for each, concurrently.
func checkPairs(ctx context.Context, config *Config, users []TestUser, stats *Stats) ([]PairCheck, error) {
	pairs := samplePairs(users, config.NumPairs)
	log.Printf("Checking %d pairs with %d workers...", len(pairs), config.Workers)

	client := newHTTPClient(config.Timeout)

	// Results storage
	checks := make([]PairCheck, len(pairs))
	var (
		checked int64
		failed  int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	pairChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range pairChan {
				select {
				case <-ctx.Done():
					return
				default:
					pair := pairs[index]
					check, err := checkSinglePair(ctx, client, config.BaseURL, pair[0], pair[1])

					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("failed to check pair %s/%s: %v", pair[0], pair[1], err)
						}
					} else {
						checks[index] = check
						atomic.AddInt64(&checked, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						done := atomic.LoadInt64(&checked) + atomic.LoadInt64(&failed)
						log.Printf("pair progress: %d/%d checked (failed: %d)",
							done, len(pairs), atomic.LoadInt64(&failed))
					}
				}
			}
		}()
	}

	// Send pair indices to workers
	go func() {
		defer close(pairChan)
		for i := range pairs {
			select {
			case <-ctx.Done():
				return
			case pairChan <- i:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Filter out empty checks (failed retrievals)
	validChecks := make([]PairCheck, 0, len(checks))
	for _, check := range checks {
		if check.A != "" {
			validChecks = append(validChecks, check)
		}
	}

	// Update stats
	stats.PairsChecked = len(validChecks)
	stats.ChecksFailed = int(atomic.LoadInt64(&failed))
	for _, check := range validChecks {
		if check.Decision == nil {
			continue
		}
		if check.Decision.Scheduled {
			stats.MeetingsScheduled++
		} else {
			stats.PairsDeclined++
		}
	}

	log.Printf(`Pair checking completed:
   Checked: %d
   Scheduled: %d
   Declined: %d
   Failed: %d
`, stats.PairsChecked, stats.MeetingsScheduled, stats.PairsDeclined, stats.ChecksFailed)

	return validChecks, nil
}

// checkSinglePair scores one pair in both directions and posts a match.
func checkSinglePair(ctx context.Context, client *HTTPClient, baseURL, a, b string) (PairCheck, error) {
	forward, err := getCompatibility(ctx, client, baseURL, a, b)
	if err != nil {
		return PairCheck{}, err
	}
	backward, err := getCompatibility(ctx, client, baseURL, b, a)
	if err != nil {
		return PairCheck{}, err
	}

	check := PairCheck{A: a, B: b, Forward: forward, Backward: backward}

	decision, err := postMatch(ctx, client, baseURL, a, b)
	if err != nil {
		return PairCheck{}, err
	}
	check.Decision = &decision

	return check, nil
}

// getCompatibility retrieves the component scores for one ordered pair.
func getCompatibility(ctx context.Context, client *HTTPClient, baseURL, a, b string) (CompatibilityResult, error) {
	url := fmt.Sprintf("%s/compatibility?a=%s&b=%s", baseURL, a, b)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return CompatibilityResult{}, fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return CompatibilityResult{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return CompatibilityResult{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var result CompatibilityResult
	if err := unmarshalJSON(body, &result); err != nil {
		return CompatibilityResult{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return result, nil
}

// postMatch attempts to match the pair and returns the decision.
func postMatch(ctx context.Context, client *HTTPClient, baseURL, a, b string) (MeetingDecision, error) {
	resp, err := client.Post(ctx, baseURL+"/matches", map[string]string{"a": a, "b": b})
	if err != nil {
		return MeetingDecision{}, fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return MeetingDecision{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return MeetingDecision{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var decision MeetingDecision
	if err := unmarshalJSON(body, &decision); err != nil {
		return MeetingDecision{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return decision, nil
}

// runNearbyQueries exercises the nearby endpoint for a sample of users and
// checks the self-exclusion and radius properties on each listing.
func runNearbyQueries(ctx context.Context, config *Config, users []TestUser, stats *Stats) error {
	sample := minInt(len(users), config.Workers*WorkerChannelMultiplier)
	log.Printf("Running %d nearby queries...", sample)

	client := newHTTPClient(config.Timeout)
	violations := 0

	for i := 0; i < sample; i++ {
		user := users[getRandomIndex(len(users))]

		url := fmt.Sprintf("%s/nearby?user=%s", config.BaseURL, user.ID)
		if config.RadiusKm > 0 {
			url = fmt.Sprintf("%s&radius=%v", url, config.RadiusKm)
		}
		resp, err := client.Get(ctx, url)
		if err != nil {
			return fmt.Errorf("nearby request failed: %w", err)
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return fmt.Errorf("failed to read nearby response: %w", err)
		}
		if resp.StatusCode != StatusOK {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}

		var listing []NearbyUser
		if err := unmarshalJSON(body, &listing); err != nil {
			return fmt.Errorf("failed to parse nearby response: %w", err)
		}

		stats.NearbyQueries++
		for _, row := range listing {
			if row.UserID == user.ID {
				violations++
				log.Printf("nearby listing for %s contains the target itself", user.ID)
			}
			if config.RadiusKm > 0 && row.DistanceKm > config.RadiusKm {
				violations++
				log.Printf("nearby row %s exceeds radius: %.3f km", row.UserID, row.DistanceKm)
			}
		}
	}

	stats.InvariantViolations += violations
	log.Printf("Nearby queries completed: %d (violations: %d)", stats.NearbyQueries, violations)
	return nil
}
