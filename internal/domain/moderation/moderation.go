// Package moderation screens user content against a keyword blocklist and
// tracks abuse flags against repeat offenders.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"
)

// Default moderation configuration constants.
const (
	defaultDangerThreshold = 3
	// DefaultBlockReason is recorded against senders caught by the blocklist.
	DefaultBlockReason = "Inappropriate language used."
)

// ErrInvalidContent indicates content that is not valid UTF-8 text.
var ErrInvalidContent = errors.New("content is not valid text")

// defaultBlocklist is the placeholder term list used until configuration
// supplies a real one.
func defaultBlocklist() []string {
	return []string{"badword1", "badword2", "badword3"}
}

// Blocker is the downstream authority that blocks message senders.
type Blocker interface {
	// Block records userID as blocked for the given reason.
	Block(ctx context.Context, userID, reason string) error
}

// Screener decides whether user content may be delivered.
type Screener interface {
	// ScreenText returns whether the message is appropriate. A blocklist hit
	// blocks the sender as a side effect.
	ScreenText(ctx context.Context, senderID, text string) (bool, error)

	// ScreenMedia returns whether the upload is appropriate.
	ScreenMedia(ctx context.Context, uploaderID string, media []byte) (bool, error)
}

// KeywordScreener implements Screener with a case-insensitive substring
// blocklist. Media screening is a capability stub: no analyzer is deployed,
// so every upload passes.
type KeywordScreener struct {
	blocklist []string // lowercase terms, empties dropped
	blocker   Blocker
}

// NewKeywordScreener creates a screener with configuration options.
// Without a Blocker, blocklist hits still reject but block nobody.
func NewKeywordScreener(opts ...ScreenerOption) *KeywordScreener {
	s := &KeywordScreener{
		blocklist: defaultBlocklist(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ScreenText checks the message against the blocklist. The first hit blocks
// the sender and rejects the message; later terms are not consulted, so a
// sender is blocked at most once per call. Blank messages are safe.
func (s *KeywordScreener) ScreenText(ctx context.Context, senderID, text string) (bool, error) {
	if !utf8.ValidString(text) {
		return false, fmt.Errorf("%w: message from %q is not valid UTF-8", ErrInvalidContent, senderID)
	}
	if strings.TrimSpace(text) == "" {
		return true, nil
	}

	lowered := strings.ToLower(text)
	for _, term := range s.blocklist {
		if !strings.Contains(lowered, term) {
			continue
		}
		if s.blocker != nil {
			if err := s.blocker.Block(ctx, senderID, DefaultBlockReason); err != nil {
				return false, fmt.Errorf("blocking sender %q: %w", senderID, err)
			}
		}
		return false, nil
	}

	return true, nil
}

// ScreenMedia allows every upload.
func (s *KeywordScreener) ScreenMedia(_ context.Context, _ string, _ []byte) (bool, error) {
	return true, nil
}

// FlagTracker counts abuse flags and marks repeat offenders dangerous.
type FlagTracker interface {
	// Flag increments userID's flag count. It returns the new count and
	// whether the user is now considered dangerous.
	Flag(ctx context.Context, userID string) (int, bool)

	// Count returns userID's current flag count.
	Count(ctx context.Context, userID string) int

	// Dangerous lists users at or above the danger threshold, in the order
	// they were first flagged.
	Dangerous(ctx context.Context) []string

	// Size returns the number of users with at least one flag.
	Size() int64
}

// inMemoryTracker implements FlagTracker with a map guarded by a mutex.
// The order slice keeps first-flag order for deterministic listings.
type inMemoryTracker struct {
	mu        sync.RWMutex
	flags     map[string]int
	order     []string
	threshold int
}

// NewFlagTracker creates an in-memory flag tracker with configuration options.
func NewFlagTracker(opts ...TrackerOption) FlagTracker {
	t := &inMemoryTracker{
		flags:     make(map[string]int),
		threshold: defaultDangerThreshold,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Flag increments userID's flag count.
func (t *inMemoryTracker) Flag(_ context.Context, userID string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.flags[userID]; !exists {
		t.order = append(t.order, userID)
	}
	t.flags[userID]++

	count := t.flags[userID]
	return count, count >= t.threshold
}

// Count returns userID's current flag count.
func (t *inMemoryTracker) Count(_ context.Context, userID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.flags[userID]
}

// Dangerous lists users at or above the danger threshold.
func (t *inMemoryTracker) Dangerous(_ context.Context) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	dangerous := make([]string, 0)
	for _, userID := range t.order {
		if t.flags[userID] >= t.threshold {
			dangerous = append(dangerous, userID)
		}
	}
	return dangerous
}

// Size returns the number of users with at least one flag.
func (t *inMemoryTracker) Size() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return int64(len(t.flags))
}
