package matching

import (
	"github.com/okian/sopmatch/internal/domain/scoring"
	"github.com/okian/sopmatch/internal/domain/textnorm"
	"github.com/okian/sopmatch/pkg/logger"
)

// Option configures a Matcher.
type Option func(*Matcher)

// WithScorer sets the score fusion strategy.
func WithScorer(s scoring.Scorer) Option {
	return func(m *Matcher) {
		if s != nil {
			m.scorer = s
		}
	}
}

// WithNormalizer sets the text normalizer used for submissions and profiles.
func WithNormalizer(n *textnorm.Normalizer) Option {
	return func(m *Matcher) {
		if n != nil {
			m.normalizer = n
		}
	}
}

// WithNGramMax sets the largest n-gram used as a feature (1 to 3).
func WithNGramMax(n int) Option {
	return func(m *Matcher) {
		if n >= 1 && n <= 3 {
			m.ngramMax = n
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l logger.Logger) Option {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}
