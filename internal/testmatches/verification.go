package testmatches

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
)

// verifyResults checks the engine invariants over the collected pair checks.
func verifyResults(ctx context.Context, config *Config, checks []PairCheck, stats *Stats) error {
	log.Println("Verifying results...")

	if len(checks) == 0 {
		return fmt.Errorf("no pair checks to verify")
	}

	threshold, err := fetchScheduleThreshold(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to read schedule threshold: %w", err)
	}

	violations := 0
	for _, check := range checks {
		violations += verifyScoreRange(check)
		violations += verifySymmetry(check)
		violations += verifyDecision(check, threshold)
	}

	stats.InvariantViolations += violations
	if violations > 0 {
		log.Printf("Invariant verification found %d violations", violations)
	} else {
		log.Println("All engine invariants verified")
	}

	displayTopPairs(checks, config.Verbose)

	log.Println("Result verification completed")
	return nil
}

// verifyScoreRange checks that every component and total sits in [0, 1].
func verifyScoreRange(check PairCheck) int {
	violations := 0
	for _, score := range []float64{
		check.Forward.Proximity, check.Forward.Interests, check.Forward.Traits, check.Forward.Total,
		check.Backward.Proximity, check.Backward.Interests, check.Backward.Traits, check.Backward.Total,
	} {
		if score < 0 || score > 1 {
			violations++
			log.Printf("score out of range for %s/%s: %v", check.A, check.B, score)
		}
	}
	return violations
}

// verifySymmetry checks that scoring is order-independent.
func verifySymmetry(check PairCheck) int {
	if math.Abs(check.Forward.Total-check.Backward.Total) > scoreTolerance {
		log.Printf("asymmetric total for %s/%s: %v vs %v",
			check.A, check.B, check.Forward.Total, check.Backward.Total)
		return 1
	}
	return 0
}

// verifyDecision checks the decision against the reported score and the
// configured threshold.
func verifyDecision(check PairCheck, threshold float64) int {
	if check.Decision == nil {
		return 0
	}
	violations := 0

	if math.Abs(check.Decision.Score-check.Forward.Total) > scoreTolerance {
		violations++
		log.Printf("decision score for %s/%s does not match compatibility total: %v vs %v",
			check.A, check.B, check.Decision.Score, check.Forward.Total)
	}

	shouldSchedule := check.Decision.Score >= threshold
	if check.Decision.Scheduled != shouldSchedule {
		violations++
		log.Printf("decision for %s/%s inconsistent with threshold %v: score %v, scheduled %v",
			check.A, check.B, threshold, check.Decision.Score, check.Decision.Scheduled)
	}

	if check.Decision.Scheduled && check.Decision.MeetingID == "" {
		violations++
		log.Printf("scheduled decision for %s/%s carries no meeting id", check.A, check.B)
	}

	return violations
}

// fetchScheduleThreshold reads the service's configured threshold from /stats.
func fetchScheduleThreshold(ctx context.Context, config *Config) (float64, error) {
	stats, err := fetchServiceStats(ctx, config)
	if err != nil {
		return 0, err
	}

	raw, ok := stats["scheduleThreshold"]
	if !ok {
		return 0, fmt.Errorf("stats response carries no scheduleThreshold")
	}
	threshold, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("unexpected scheduleThreshold type %T", raw)
	}
	return threshold, nil
}

// fetchServiceStats retrieves the service counters snapshot.
func fetchServiceStats(ctx context.Context, config *Config) (map[string]interface{}, error) {
	client := newHTTPClient(config.Timeout)

	resp, err := client.Get(ctx, config.BaseURL+"/stats")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var stats map[string]interface{}
	if err := unmarshalJSON(body, &stats); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return stats, nil
}

// displayTopPairs shows the most compatible sampled pairs.
func displayTopPairs(checks []PairCheck, verbose bool) {
	sorted := make([]PairCheck, len(checks))
	copy(sorted, checks)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Forward.Total > sorted[j].Forward.Total
	})

	topN := 10
	if len(sorted) < topN {
		topN = len(sorted)
	}

	log.Printf("Top %d pairs by compatibility:", topN)
	for i := 0; i < topN; i++ {
		check := sorted[i]
		scheduled := false
		if check.Decision != nil {
			scheduled = check.Decision.Scheduled
		}
		log.Printf("   %d. %s / %s - total: %.3f (scheduled: %v)",
			i+1, check.A, check.B, check.Forward.Total, scheduled)
	}

	if verbose && len(sorted) > 0 {
		avgTotal := calculateAverageTotal(sorted)
		maxTotal := sorted[0].Forward.Total
		minTotal := sorted[len(sorted)-1].Forward.Total

		log.Printf(`Score statistics:
   Average: %.3f
   Maximum: %.3f
   Minimum: %.3f
`, avgTotal, maxTotal, minTotal)
	}
}

// calculateAverageTotal calculates the average total over the checks.
func calculateAverageTotal(checks []PairCheck) float64 {
	if len(checks) == 0 {
		return 0
	}

	sum := 0.0
	for _, check := range checks {
		sum += check.Forward.Total
	}

	return sum / float64(len(checks))
}
