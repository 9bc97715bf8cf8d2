// Package repository defines the user directory and blocklist stores.
package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okabe/omiai/internal/domain/geo"
	"github.com/okabe/omiai/internal/domain/model"
	"github.com/okabe/omiai/pkg/metrics"
)

// Map-backed, in-memory Directory implementation.
//
// The order slice keeps registration order so List is deterministic and the
// nearby finder's order-preservation holds across the stack.

// MemoryDirectory implements Directory with a mutex-guarded map.
type MemoryDirectory struct {
	mu    sync.RWMutex
	byID  map[string]model.UserRecord
	order []string
}

// NewMemoryDirectory constructs an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		byID: make(map[string]model.UserRecord),
	}
}

// Create registers a new record.
func (d *MemoryDirectory) Create(_ context.Context, record model.UserRecord) error {
	d.mu.Lock()
	if _, exists := d.byID[record.ID]; exists {
		d.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrAlreadyExists, record.ID)
	}
	d.byID[record.ID] = record.Clone()
	d.order = append(d.order, record.ID)
	count := len(d.byID)
	d.mu.Unlock()

	metrics.UpdateRegisteredUsers(count)
	return nil
}

// Get returns a copy of the record for id.
func (d *MemoryDirectory) Get(_ context.Context, id string) (model.UserRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	record, ok := d.byID[id]
	if !ok {
		return model.UserRecord{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return record.Clone(), nil
}

// SetLocation stores a consented location on the record.
func (d *MemoryDirectory) SetLocation(_ context.Context, id string, location geo.Coordinates) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	record, ok := d.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	record.Location = &location
	d.byID[id] = record
	return nil
}

// SetInterests replaces the record's interest set.
func (d *MemoryDirectory) SetInterests(_ context.Context, id string, interests []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	record, ok := d.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	record.Interests = append([]string(nil), interests...)
	d.byID[id] = record
	return nil
}

// SetPreferences replaces the record's games and schedules.
func (d *MemoryDirectory) SetPreferences(_ context.Context, id string, prefs model.Preferences) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	record, ok := d.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	record.Preferences = prefs.Clone()
	d.byID[id] = record
	return nil
}

// List returns copies of all records in registration order.
func (d *MemoryDirectory) List(_ context.Context) []model.UserRecord {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]model.UserRecord, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.byID[id].Clone())
	}
	return out
}

// Count returns the number of registered users.
func (d *MemoryDirectory) Count(_ context.Context) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}

// MemoryBlocklist implements Blocklist with a mutex-guarded map.
// The order slice keeps first-block order for deterministic listings.
type MemoryBlocklist struct {
	mu    sync.RWMutex
	byID  map[string]model.BlockEntry
	order []string
	now   func() time.Time
}

// NewMemoryBlocklist constructs an empty in-memory blocklist.
func NewMemoryBlocklist() *MemoryBlocklist {
	return &MemoryBlocklist{
		byID: make(map[string]model.BlockEntry),
		now:  time.Now,
	}
}

// Block records userID as blocked. The first block wins.
func (b *MemoryBlocklist) Block(_ context.Context, userID, reason string) error {
	b.mu.Lock()
	if _, exists := b.byID[userID]; exists {
		b.mu.Unlock()
		return nil
	}
	b.byID[userID] = model.BlockEntry{
		UserID:    userID,
		Reason:    reason,
		BlockedAt: b.now(),
	}
	b.order = append(b.order, userID)
	count := len(b.byID)
	b.mu.Unlock()

	metrics.UpdateBlockedUsers(count)
	return nil
}

// Unblock removes the block for userID.
func (b *MemoryBlocklist) Unblock(_ context.Context, userID string) error {
	b.mu.Lock()
	if _, exists := b.byID[userID]; !exists {
		b.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrNotBlocked, userID)
	}
	delete(b.byID, userID)
	for i, id := range b.order {
		if id == userID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	count := len(b.byID)
	b.mu.Unlock()

	metrics.UpdateBlockedUsers(count)
	return nil
}

// IsBlocked reports whether userID is currently blocked.
func (b *MemoryBlocklist) IsBlocked(_ context.Context, userID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, exists := b.byID[userID]
	return exists
}

// Entry returns the block entry for userID.
func (b *MemoryBlocklist) Entry(_ context.Context, userID string) (model.BlockEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, exists := b.byID[userID]
	if !exists {
		return model.BlockEntry{}, fmt.Errorf("%w: %q", ErrNotBlocked, userID)
	}
	return entry, nil
}

// List returns all block entries in first-block order.
func (b *MemoryBlocklist) List(_ context.Context) []model.BlockEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]model.BlockEntry, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.byID[id])
	}
	return out
}

// Count returns the number of blocked users.
func (b *MemoryBlocklist) Count(_ context.Context) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byID)
}
