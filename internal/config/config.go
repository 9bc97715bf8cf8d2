// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file, and env vars.
// - Validation failures are wrapped with this package's sentinel errors.
package config

// Weights holds the compatibility component weights. They must be
// non-negative and sum to 1.
type Weights struct {
	// Proximity weighs the location closeness component.
	Proximity float64 `koanf:"proximity"`

	// Interests weighs the shared-interest component.
	Interests float64 `koanf:"interests"`

	// Traits weighs the psychological-trait component.
	Traits float64 `koanf:"traits"`
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Weights configures the compatibility score composition.
	Weights Weights `koanf:"weights"`

	// NearRadiusKm is the distance at which two users count as near.
	NearRadiusKm float64 `koanf:"near_radius_km"`

	// FarScore is the proximity score for users beyond NearRadiusKm.
	FarScore float64 `koanf:"far_score"`

	// ScheduleThreshold is the minimum total score that schedules a meeting.
	ScheduleThreshold float64 `koanf:"schedule_threshold"`

	// DefaultRadiusKm is used by nearby queries that omit a radius.
	DefaultRadiusKm float64 `koanf:"default_radius_km"`

	// MaxRadiusKm caps the radius a nearby query may ask for.
	MaxRadiusKm float64 `koanf:"max_radius_km"`

	// DangerThreshold is the flag count at which a user counts as dangerous.
	DangerThreshold int `koanf:"danger_threshold"`

	// Blocklist overrides the built-in screening word list when non-empty.
	Blocklist []string `koanf:"blocklist"`

	// PromptConsent wires the interactive console prompter when true;
	// otherwise consent requests are denied without prompting.
	PromptConsent bool `koanf:"prompt_consent"`
}

// New creates a Config with defaults.
func New() *Config {
	c := &Config{
		LogLevel: "info",
		Addr:     ":9080",
		Weights: Weights{
			Proximity: 0.3,
			Interests: 0.4,
			Traits:    0.3,
		},
		NearRadiusKm:      10,
		FarScore:          0.1,
		ScheduleThreshold: 0.7,
		DefaultRadiusKm:   10,
		MaxRadiusKm:       500,
		DangerThreshold:   3,
		PromptConsent:     false,
	}
	return c
}
