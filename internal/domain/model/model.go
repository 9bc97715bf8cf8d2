// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okabe/omiai/internal/domain/geo"
)

// Preferences groups the matchmaking preferences kept on a user record.
type Preferences struct {
	Games             []string       `json:"games"`               // preferred icebreaker games
	SpeedDatingDays   []time.Weekday `json:"speed_dating_days"`   // weekdays available for speed dating
	BlindMatchingDays []time.Weekday `json:"blind_matching_days"` // weekdays available for blind matching
}

// Clone returns a deep copy of the preferences.
func (p Preferences) Clone() Preferences {
	return Preferences{
		Games:             cloneStrings(p.Games),
		SpeedDatingDays:   cloneWeekdays(p.SpeedDatingDays),
		BlindMatchingDays: cloneWeekdays(p.BlindMatchingDays),
	}
}

// UserRecord is a user profile held by the directory.
// Location is nil until a consented location save succeeds.
type UserRecord struct {
	ID          string           // unique user identifier
	Name        string           // display name
	Location    *geo.Coordinates // last consented location, nil when unknown
	Interests   []string         // free-form interest labels
	Traits      []string         // trait labels fed to the trait provider
	Preferences Preferences      // games and meeting schedules
}

// Clone returns a deep copy so callers never share slices with the store.
func (u UserRecord) Clone() UserRecord {
	out := u
	if u.Location != nil {
		loc := *u.Location
		out.Location = &loc
	}
	out.Interests = cloneStrings(u.Interests)
	out.Traits = cloneStrings(u.Traits)
	out.Preferences = u.Preferences.Clone()
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneWeekdays(in []time.Weekday) []time.Weekday {
	if in == nil {
		return nil
	}
	out := make([]time.Weekday, len(in))
	copy(out, in)
	return out
}

// Meeting is a scheduled meeting held by the roster.
// Participants keeps join order.
type Meeting struct {
	ID           string    // roster-assigned uuid
	Participants []string  // user ids in join order
	CreatedAt    time.Time // roster creation time
}

// CompatibilityResult is the per-component breakdown of a pairwise score.
type CompatibilityResult struct {
	Proximity float64 `json:"proximity"`
	Interests float64 `json:"interests"`
	Traits    float64 `json:"traits"`
	Total     float64 `json:"total"`
}

// MeetingDecision is the outcome of scoring a pair against the threshold.
// MeetingID is empty unless Scheduled is true.
type MeetingDecision struct {
	Score     float64 `json:"score"`
	Scheduled bool    `json:"scheduled"`
	MeetingID string  `json:"meeting_id,omitempty"`
}

// BlockEntry records a blocked user and why.
type BlockEntry struct {
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"`
	BlockedAt time.Time `json:"blocked_at"`
}

// ConsentStatus reports a user's recorded geolocation consent.
type ConsentStatus struct {
	UserID  string `json:"user_id"`
	Granted bool   `json:"granted"`
}
