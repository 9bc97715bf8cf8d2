package testmatches

import "time"

// Config holds configuration for the matchmaking test
type Config struct {
	BaseURL    string        // Base URL of the service
	NumUsers   int           // Number of users to generate and register
	NumPairs   int           // Number of pairs to sample for compatibility checks
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	RadiusKm   float64       // Radius for nearby queries, 0 uses the server default
	OutputFile string        // Output file for generated users
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// TestUser represents a user to be registered
type TestUser struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Location  *Coordinates `json:"location,omitempty"`
	Interests []string     `json:"interests"`
	Traits    []string     `json:"traits"`
}

// Coordinates represents a geolocation on the wire
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CompatibilityResult represents a pairwise score breakdown
type CompatibilityResult struct {
	Proximity float64 `json:"proximity"`
	Interests float64 `json:"interests"`
	Traits    float64 `json:"traits"`
	Total     float64 `json:"total"`
}

// MeetingDecision represents the outcome of a match attempt
type MeetingDecision struct {
	Score     float64 `json:"score"`
	Scheduled bool    `json:"scheduled"`
	MeetingID string  `json:"meeting_id"`
}

// ConsentStatus represents a recorded consent on the wire
type ConsentStatus struct {
	UserID  string `json:"user_id"`
	Granted bool   `json:"granted"`
}

// SaveOutcome represents the response from a location save
type SaveOutcome struct {
	Saved bool `json:"saved"`
}

// NearbyUser represents a row in a nearby listing
type NearbyUser struct {
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	DistanceKm float64 `json:"distance_km"`
}

// PairCheck couples a sampled pair with its scores in both directions
type PairCheck struct {
	A        string
	B        string
	Forward  CompatibilityResult
	Backward CompatibilityResult
	Decision *MeetingDecision
}

// Stats holds test statistics
type Stats struct {
	UsersGenerated      int
	UsersRegistered     int
	RegistrationsFailed int
	ConsentsGranted     int
	LocationsSaved      int
	PairsChecked        int
	ChecksFailed        int
	MeetingsScheduled   int
	PairsDeclined       int
	NearbyQueries       int
	InvariantViolations int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}
