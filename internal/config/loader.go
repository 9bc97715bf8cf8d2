package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// weightSumTolerance bounds the float drift allowed when checking that the
// component weights sum to 1.
const weightSumTolerance = 1e-9

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if OMIAI_CONFIG is set
//  3. env (prefix OMIAI_)
func Load(_ context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("OMIAI_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: OMIAI_ADDR, OMIAI_NEAR_RADIUS_KM, ...
	// Single underscores are preserved to match the flat koanf tags;
	// a double underscore descends into nested keys, so
	// OMIAI_WEIGHTS__PROXIMITY maps to weights.proximity.
	envProvider := env.Provider("OMIAI_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "omiai_")
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.Weights.Proximity < 0 || c.Weights.Interests < 0 || c.Weights.Traits < 0 {
		return fmt.Errorf("%w: weights must be non-negative", ErrInvalidConfig)
	}
	sum := c.Weights.Proximity + c.Weights.Interests + c.Weights.Traits
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("%w: weights must sum to 1, got %v", ErrInvalidConfig, sum)
	}
	if c.NearRadiusKm <= 0 {
		return fmt.Errorf("%w: near_radius_km must be positive", ErrInvalidConfig)
	}
	if c.FarScore < 0 || c.FarScore > 1 {
		return fmt.Errorf("%w: far_score must be within [0, 1]", ErrInvalidConfig)
	}
	if c.ScheduleThreshold < 0 || c.ScheduleThreshold > 1 {
		return fmt.Errorf("%w: schedule_threshold must be within [0, 1]", ErrInvalidConfig)
	}
	if c.DefaultRadiusKm <= 0 {
		return fmt.Errorf("%w: default_radius_km must be positive", ErrInvalidConfig)
	}
	if c.MaxRadiusKm < c.DefaultRadiusKm {
		return fmt.Errorf("%w: max_radius_km must not be below default_radius_km", ErrInvalidConfig)
	}
	if c.DangerThreshold < 1 {
		return fmt.Errorf("%w: danger_threshold must be at least 1", ErrInvalidConfig)
	}
	return nil
}
