// Package moderation screens user content against a keyword blocklist and
// tracks abuse flags against repeat offenders.
package moderation

import "strings"

// ScreenerOption applies a configuration option to the KeywordScreener.
type ScreenerOption func(*KeywordScreener)

// WithBlocklist replaces the blocklist. Terms are matched case-insensitively;
// empty terms are dropped.
func WithBlocklist(terms []string) ScreenerOption {
	return func(s *KeywordScreener) {
		cleaned := make([]string, 0, len(terms))
		for _, term := range terms {
			term = strings.ToLower(strings.TrimSpace(term))
			if term != "" {
				cleaned = append(cleaned, term)
			}
		}
		s.blocklist = cleaned
	}
}

// WithBlocker sets the authority that records sender blocks.
func WithBlocker(b Blocker) ScreenerOption {
	return func(s *KeywordScreener) {
		if b != nil {
			s.blocker = b
		}
	}
}

// TrackerOption applies a configuration option to the flag tracker.
type TrackerOption func(*inMemoryTracker)

// WithDangerThreshold sets the flag count at which a user becomes dangerous.
func WithDangerThreshold(threshold int) TrackerOption {
	return func(t *inMemoryTracker) {
		if threshold > 0 {
			t.threshold = threshold
		}
	}
}
