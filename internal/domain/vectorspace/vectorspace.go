// Package vectorspace builds TF-IDF document vectors over unigram and bigram
// features. A Space is built from scratch for every call and never cached.
package vectorspace

import (
	"math"
	"sort"
	"strings"
)

const (
	defaultNGramMax = 2
	maxNGram        = 3
)

// Option configures Build.
type Option func(*builder)

type builder struct {
	ngramMax int
}

// WithNGramMax sets the largest n-gram size (1 to 3). Defaults to 2.
func WithNGramMax(n int) Option {
	return func(b *builder) {
		if n >= 1 && n <= maxNGram {
			b.ngramMax = n
		}
	}
}

// Space is the vocabulary and weighted vectors of one document set.
type Space struct {
	features []string
	index    map[string]int
	vectors  [][]float64
}

// Build computes L2-normalised TF-IDF vectors for docs, each given as a token
// slice. Term weight is raw count times smooth IDF ln((1+N)/(1+df))+1.
func Build(docs [][]string, opts ...Option) *Space {
	b := builder{ngramMax: defaultNGramMax}
	for _, opt := range opts {
		opt(&b)
	}

	counts := make([]map[string]int, len(docs))
	df := make(map[string]int)
	for i, tokens := range docs {
		counts[i] = Features(tokens, b.ngramMax)
		for term := range counts[i] {
			df[term]++
		}
	}

	features := make([]string, 0, len(df))
	for term := range df {
		features = append(features, term)
	}
	sort.Strings(features)

	index := make(map[string]int, len(features))
	idf := make([]float64, len(features))
	n := float64(len(docs))
	for i, term := range features {
		index[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	vectors := make([][]float64, len(docs))
	for d, tf := range counts {
		v := make([]float64, len(features))
		for term, c := range tf {
			i := index[term]
			v[i] = float64(c) * idf[i]
		}
		normalize(v)
		vectors[d] = v
	}

	return &Space{features: features, index: index, vectors: vectors}
}

// Features counts the contiguous n-grams of tokens for n in 1..ngramMax.
// Multi-token features are joined with a single space.
func Features(tokens []string, ngramMax int) map[string]int {
	out := make(map[string]int)
	for n := 1; n <= ngramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out[strings.Join(tokens[i:i+n], " ")]++
		}
	}
	return out
}

// Vector returns the weighted vector of document i, or nil when out of range.
// The returned slice must not be modified.
func (s *Space) Vector(i int) []float64 {
	if i < 0 || i >= len(s.vectors) {
		return nil
	}
	return s.vectors[i]
}

// Dim is the vocabulary size.
func (s *Space) Dim() int { return len(s.features) }

// Len is the number of documents.
func (s *Space) Len() int { return len(s.vectors) }

// Feature returns the term at column i.
func (s *Space) Feature(i int) string { return s.features[i] }

// Index returns the column of term and whether it is in the vocabulary.
func (s *Space) Index(term string) (int, bool) {
	i, ok := s.index[term]
	return i, ok
}

func normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
}
