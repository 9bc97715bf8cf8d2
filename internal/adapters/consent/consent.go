// Package consent tracks per-user geolocation consent. Consent defaults to
// denied: the first lookup for an unknown user records a denial, and only an
// explicit grant (via Set or a successful prompt) flips it.
package consent

import (
	"context"
	"sync"

	"github.com/okabe/omiai/internal/domain/model"
	"github.com/okabe/omiai/pkg/metrics"
)

// Prompter asks a user for geolocation consent.
type Prompter interface {
	// Ask returns the user's answer. An error means the question could
	// not be put to the user at all.
	Ask(ctx context.Context, userID string) (bool, error)
}

// PrompterFunc adapts a plain function to the Prompter interface.
type PrompterFunc func(ctx context.Context, userID string) (bool, error)

// Ask calls f.
func (f PrompterFunc) Ask(ctx context.Context, userID string) (bool, error) {
	return f(ctx, userID)
}

// StaticPrompter always answers with a fixed value. The zero value denies.
type StaticPrompter struct {
	Answer bool
}

// Ask returns the fixed answer.
func (p StaticPrompter) Ask(context.Context, string) (bool, error) {
	return p.Answer, nil
}

// Registry stores consent decisions.
type Registry interface {
	// Get returns the user's consent status, recording a denial for
	// users that were never asked.
	Get(ctx context.Context, userID string) bool

	// Set records an explicit consent decision.
	Set(ctx context.Context, userID string, granted bool)

	// Request asks the user for consent through the prompter and records
	// the answer. A failed prompt counts as a denial.
	Request(ctx context.Context, userID string) bool

	// Status returns the recorded decision without materializing one.
	Status(ctx context.Context, userID string) (model.ConsentStatus, bool)

	// Granted returns the number of users with recorded grants.
	Granted(ctx context.Context) int

	// Count returns the number of recorded decisions.
	Count(ctx context.Context) int
}

// MemoryRegistry implements Registry with a mutex-guarded map.
type MemoryRegistry struct {
	mu       sync.RWMutex
	byID     map[string]bool
	prompter Prompter
}

// NewMemoryRegistry constructs a registry. Without options it uses a
// deny-everything prompter, so Request degrades to a recorded denial.
func NewMemoryRegistry(opts ...Option) *MemoryRegistry {
	r := &MemoryRegistry{
		byID:     make(map[string]bool),
		prompter: StaticPrompter{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the consent status for userID, defaulting to denied.
func (r *MemoryRegistry) Get(_ context.Context, userID string) bool {
	r.mu.RLock()
	granted, ok := r.byID[userID]
	r.mu.RUnlock()
	if ok {
		return granted
	}

	r.mu.Lock()
	// Re-check: another goroutine may have recorded a decision between
	// the two lock acquisitions.
	if granted, ok = r.byID[userID]; !ok {
		r.byID[userID] = false
		granted = false
	}
	r.mu.Unlock()
	return granted
}

// Set records an explicit consent decision.
func (r *MemoryRegistry) Set(_ context.Context, userID string, granted bool) {
	r.mu.Lock()
	r.byID[userID] = granted
	r.mu.Unlock()

	metrics.RecordConsent(granted)
}

// Request prompts the user and records the answer. Prompt failures are
// treated as denials rather than errors so callers can always proceed.
func (r *MemoryRegistry) Request(ctx context.Context, userID string) bool {
	granted, err := r.prompter.Ask(ctx, userID)
	if err != nil {
		granted = false
	}
	r.Set(ctx, userID, granted)
	return granted
}

// Status returns the recorded decision for userID, if any.
func (r *MemoryRegistry) Status(_ context.Context, userID string) (model.ConsentStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	granted, ok := r.byID[userID]
	if !ok {
		return model.ConsentStatus{}, false
	}
	return model.ConsentStatus{UserID: userID, Granted: granted}, true
}

// Granted returns the number of recorded grants.
func (r *MemoryRegistry) Granted(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	granted := 0
	for _, ok := range r.byID {
		if ok {
			granted++
		}
	}
	return granted
}

// Count returns the number of recorded decisions.
func (r *MemoryRegistry) Count(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
