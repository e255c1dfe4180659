// Package textnorm turns free text into comparable lower-case tokens.
package textnorm

import (
	"strings"
	"unicode"
)

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithStopWords enables or disables English stop-word removal.
func WithStopWords(enabled bool) Option {
	return func(n *Normalizer) {
		n.stopWords = enabled
	}
}

// Normalizer lower-cases text and splits it on every rune that is not a
// letter or digit.
type Normalizer struct {
	stopWords bool
}

// New creates a Normalizer. Stop-word removal is off by default.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize tokenizes text. Empty or whitespace-only input yields an empty slice.
func (n *Normalizer) Normalize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), isSeparator)
	if !n.stopWords {
		return fields
	}

	kept := fields[:0]
	for _, f := range fields {
		if _, stop := englishStopWords[f]; !stop {
			kept = append(kept, f)
		}
	}
	return kept
}

// Normalize tokenizes text with the default Normalizer.
func Normalize(text string) []string {
	return defaultNormalizer.Normalize(text)
}

var defaultNormalizer = New()

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
