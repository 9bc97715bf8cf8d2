// Package match defines the contract for computing pairwise compatibility
// between user records and the meeting decision derived from it.
package match

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/okabe/omiai/internal/domain/geo"
	"github.com/okabe/omiai/internal/domain/model"
	"github.com/okabe/omiai/internal/domain/traits"
	"github.com/okabe/omiai/internal/domain/types"
)

// Default engine configuration constants.
const (
	defaultNearRadiusKm  = 10.0
	defaultFarScore      = 0.1
	defaultThreshold     = 0.7
	neutralInterestScore = 0.5
	weightSumTolerance   = 1e-9
)

// ErrInvalidWeights indicates weights that do not form a convex combination.
var ErrInvalidWeights = errors.New("invalid score weights")

// Weights are the named contributions of each compatibility component.
// They must be non-negative and sum to 1.
type Weights struct {
	Proximity float64
	Interests float64
	Traits    float64
}

// DefaultWeights returns the standard component weighting.
func DefaultWeights() Weights {
	return Weights{Proximity: 0.3, Interests: 0.4, Traits: 0.3}
}

// Validate checks that the weights form a convex combination.
func (w Weights) Validate() error {
	if w.Proximity < 0 || w.Interests < 0 || w.Traits < 0 {
		return fmt.Errorf("%w: components must be non-negative", ErrInvalidWeights)
	}
	sum := w.Proximity + w.Interests + w.Traits
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("%w: components sum to %v, want 1", ErrInvalidWeights, sum)
	}
	return nil
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights sets the component weights. Invalid weights keep the defaults.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		if w.Validate() == nil {
			e.weights = w
		}
	}
}

// WithNearRadius sets the distance in kilometers treated as near.
func WithNearRadius(km float64) Option {
	return func(e *Engine) {
		if km > 0 {
			e.nearRadiusKm = km
		}
	}
}

// WithFarScore sets the proximity score for pairs beyond the near radius.
func WithFarScore(score float64) Option {
	return func(e *Engine) {
		if score >= 0 && score <= 1 {
			e.farScore = score
		}
	}
}

// WithThreshold sets the minimum total score that schedules a meeting.
func WithThreshold(threshold float64) Option {
	return func(e *Engine) {
		if threshold >= 0 && threshold <= 1 {
			e.threshold = threshold
		}
	}
}

// WithTraitProvider sets the trait-similarity provider.
func WithTraitProvider(p traits.Provider) Option {
	return func(e *Engine) {
		if p != nil {
			e.traitProvider = p
		}
	}
}

// Scorer computes compatibility breakdowns and meeting decisions for a pair
// of user records.
type Scorer interface {
	// Score computes the per-component breakdown and the composed total.
	Score(ctx context.Context, a, b model.UserRecord) model.CompatibilityResult
	// Decide applies the scheduling threshold to the composed total.
	Decide(ctx context.Context, a, b model.UserRecord) model.MeetingDecision
}

// Engine implements Scorer with the step proximity policy, Jaccard interest
// similarity, and a pluggable trait provider.
type Engine struct {
	weights       Weights
	nearRadiusKm  float64
	farScore      float64
	threshold     float64
	traitProvider traits.Provider
}

// NewEngine creates an engine with configuration options applied over the
// defaults. The default trait provider reports absence for every pair.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		weights:       DefaultWeights(),
		nearRadiusKm:  defaultNearRadiusKm,
		farScore:      defaultFarScore,
		threshold:     defaultThreshold,
		traitProvider: traits.NewNoopProvider(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Threshold returns the scheduling threshold in effect.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// ProximityScore applies the step policy to a pair of locations. A missing
// location on either side contributes nothing.
func (e *Engine) ProximityScore(a, b *geo.Coordinates) float64 {
	if a == nil || b == nil {
		return 0
	}
	if geo.Distance(*a, *b) <= e.nearRadiusKm {
		return 1.0
	}
	return e.farScore
}

// InterestScore returns the Jaccard index of the two interest sets. Two
// users with no interests at all are neither similar nor dissimilar, so the
// score is neutral.
func (e *Engine) InterestScore(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, interest := range a {
		setA[interest] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, interest := range b {
		setB[interest] = struct{}{}
	}

	if len(setA) == 0 && len(setB) == 0 {
		return neutralInterestScore
	}

	common := 0
	for interest := range setA {
		if _, ok := setB[interest]; ok {
			common++
		}
	}
	union := len(setA) + len(setB) - common

	return float64(common) / float64(union)
}

// TraitScore asks the provider for a similarity. Absence contributes nothing.
func (e *Engine) TraitScore(ctx context.Context, a, b []string) float64 {
	score, ok := e.traitProvider.Compare(ctx, a, b)
	if !ok {
		return 0
	}
	return score
}

// Score computes the weighted compatibility breakdown for a pair of records.
// The composed total is clamped to [0, 1].
func (e *Engine) Score(ctx context.Context, a, b model.UserRecord) model.CompatibilityResult {
	proximity := e.ProximityScore(a.Location, b.Location)
	interests := e.InterestScore(a.Interests, b.Interests)
	traitScore := e.TraitScore(ctx, a.Traits, b.Traits)

	total := e.weights.Proximity*proximity +
		e.weights.Interests*interests +
		e.weights.Traits*traitScore

	total = math.Max(0, math.Min(1, total))

	return model.CompatibilityResult{
		Proximity: proximity,
		Interests: interests,
		Traits:    traitScore,
		Total:     total,
	}
}

// Decide scores a pair and applies the scheduling threshold. Hitting the
// threshold exactly schedules.
func (e *Engine) Decide(ctx context.Context, a, b model.UserRecord) model.MeetingDecision {
	result := e.Score(ctx, a, b)
	return model.MeetingDecision{
		Score:     result.Total,
		Scheduled: result.Total >= e.threshold,
	}
}

// Nearby returns the candidates within radiusKm of the target, preserving
// candidate order. The target itself is excluded by id, and candidates
// without a location are skipped. A target without a location has no
// neighborhood.
func (e *Engine) Nearby(target model.UserRecord, candidates []model.UserRecord, radiusKm float64) []types.NearbyUser {
	nearby := make([]types.NearbyUser, 0)
	if target.Location == nil {
		return nearby
	}

	for _, candidate := range candidates {
		if candidate.ID == target.ID || candidate.Location == nil {
			continue
		}
		distance := geo.Distance(*target.Location, *candidate.Location)
		if distance <= radiusKm {
			nearby = append(nearby, types.NearbyUser{
				UserID:     candidate.ID,
				Name:       candidate.Name,
				DistanceKm: distance,
			})
		}
	}

	return nearby
}
