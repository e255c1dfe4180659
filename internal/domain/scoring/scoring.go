// Package scoring fuses per-signal scores into one composite value.
package scoring

import (
	"fmt"
	"math"

	"github.com/okian/sopmatch/internal/domain/model"
)

// Default signal weights.
const (
	DefaultContentWeight      = 0.5
	DefaultExpertiseWeight    = 0.3
	DefaultAvailabilityWeight = 0.2

	// weightSumTolerance bounds how far the weight sum may drift from 1.
	weightSumTolerance = 1e-9
)

// Weights holds the share of each signal in the composite score.
type Weights struct {
	Content      float64
	Expertise    float64
	Availability float64
}

// DefaultWeights returns the 0.5/0.3/0.2 content/expertise/availability split.
func DefaultWeights() Weights {
	return Weights{
		Content:      DefaultContentWeight,
		Expertise:    DefaultExpertiseWeight,
		Availability: DefaultAvailabilityWeight,
	}
}

// Validate reports whether every weight is finite and non-negative and the
// weights sum to 1.
func (w Weights) Validate() error {
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"content", w.Content},
		{"expertise", w.Expertise},
		{"availability", w.Availability},
	} {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) || c.v < 0 {
			return fmt.Errorf("%w: %s weight %v", ErrInvalidWeights, c.name, c.v)
		}
	}
	if sum := w.Content + w.Expertise + w.Availability; math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %v", ErrInvalidWeights, sum)
	}
	return nil
}

// Fuse combines a breakdown into a composite score clamped to [0, 1].
func Fuse(w Weights, b model.Breakdown) float64 {
	s := w.Content*b.ContentSimilarity + w.Expertise*b.ExpertiseMatch + w.Availability*b.Availability
	switch {
	case math.IsNaN(s), s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}

// Scorer computes a composite score from a breakdown.
type Scorer interface {
	Score(b model.Breakdown) float64
}

// Option applies a configuration option to the WeightedScorer.
type Option func(*WeightedScorer)

// WithWeights overrides the default weights. NewWeightedScorer validates them.
func WithWeights(w Weights) Option {
	return func(s *WeightedScorer) {
		s.weights = w
	}
}

// WeightedScorer implements Scorer as a weighted linear combination.
type WeightedScorer struct {
	weights Weights
}

// NewWeightedScorer creates a scorer and validates its weights.
func NewWeightedScorer(opts ...Option) (*WeightedScorer, error) {
	s := &WeightedScorer{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.weights.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Score fuses b with the scorer's weights.
func (s *WeightedScorer) Score(b model.Breakdown) float64 {
	return Fuse(s.weights, b)
}

// Weights returns the weights in use.
func (s *WeightedScorer) Weights() Weights {
	return s.weights
}
