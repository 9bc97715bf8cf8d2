// Package repository defines the user directory and blocklist stores.
package repository

import (
	"context"

	"github.com/okabe/omiai/internal/domain/geo"
	"github.com/okabe/omiai/internal/domain/model"
)

// Directory provides read/write access to user records. Reads return
// copies; mutating a returned record never touches the store.
type Directory interface {
	// Create registers a new record.
	// Returns ErrAlreadyExists when the id is taken.
	Create(ctx context.Context, record model.UserRecord) error

	// Get returns the record for id.
	// Returns ErrNotFound when the user is unknown.
	Get(ctx context.Context, id string) (model.UserRecord, error)

	// SetLocation stores a consented location on the record.
	SetLocation(ctx context.Context, id string, location geo.Coordinates) error

	// SetInterests replaces the record's interest set.
	SetInterests(ctx context.Context, id string, interests []string) error

	// SetPreferences replaces the record's games and schedules.
	SetPreferences(ctx context.Context, id string, prefs model.Preferences) error

	// List returns all records in registration order.
	List(ctx context.Context) []model.UserRecord

	// Count returns the number of registered users.
	Count(ctx context.Context) int
}

// Blocklist tracks blocked users and why they were blocked.
type Blocklist interface {
	// Block records userID as blocked. The first block wins: blocking an
	// already-blocked user keeps the original entry.
	Block(ctx context.Context, userID, reason string) error

	// Unblock removes the block for userID.
	// Returns ErrNotBlocked when the user is not blocked.
	Unblock(ctx context.Context, userID string) error

	// IsBlocked reports whether userID is currently blocked.
	IsBlocked(ctx context.Context, userID string) bool

	// Entry returns the block entry for userID.
	// Returns ErrNotBlocked when the user is not blocked.
	Entry(ctx context.Context, userID string) (model.BlockEntry, error)

	// List returns all block entries in first-block order.
	List(ctx context.Context) []model.BlockEntry

	// Count returns the number of blocked users.
	Count(ctx context.Context) int
}
