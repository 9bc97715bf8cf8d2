// Package traits provides the pluggable trait-similarity capability.
//
// A Provider may be backed by anything from plain label overlap to an
// external analyzer. The second return value reports whether a similarity
// was available at all; callers treat absence as a zero contribution.
package traits

import "context"

// Provider computes a similarity in [0,1] for a pair of trait label sets.
type Provider interface {
	// Compare returns the similarity and whether one was available,
	// honoring ctx for cancellation.
	Compare(ctx context.Context, a, b []string) (float64, bool)
}

// NoopProvider is the default provider. It never has a similarity,
// standing in for analyzers that are not deployed.
type NoopProvider struct{}

// NewNoopProvider creates a provider that always reports absence.
func NewNoopProvider() *NoopProvider {
	return &NoopProvider{}
}

// Compare always reports that no similarity is available.
func (*NoopProvider) Compare(_ context.Context, _, _ []string) (float64, bool) {
	return 0, false
}

// LabelProvider scores trait overlap with the Jaccard index over label sets.
type LabelProvider struct{}

// NewLabelProvider creates a label-overlap provider.
func NewLabelProvider() *LabelProvider {
	return &LabelProvider{}
}

// Compare returns the Jaccard index of the two label sets. When neither
// side carries any labels there is nothing to compare and absence is
// reported instead of a score.
func (*LabelProvider) Compare(_ context.Context, a, b []string) (float64, bool) {
	setA := make(map[string]struct{}, len(a))
	for _, label := range a {
		setA[label] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, label := range b {
		setB[label] = struct{}{}
	}

	if len(setA) == 0 && len(setB) == 0 {
		return 0, false
	}

	common := 0
	for label := range setA {
		if _, ok := setB[label]; ok {
			common++
		}
	}
	union := len(setA) + len(setB) - common

	return float64(common) / float64(union), true
}
