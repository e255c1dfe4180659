// Package matching ranks a reviewer pool against one submission.
//
// A call is a pure function of its inputs: the vector space is rebuilt from
// the submission and the supplied pool every time, and the pool is never
// mutated. Callers pass an immutable snapshot of the registry.
package matching

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/okian/sopmatch/internal/domain/availability"
	"github.com/okian/sopmatch/internal/domain/expertise"
	"github.com/okian/sopmatch/internal/domain/model"
	"github.com/okian/sopmatch/internal/domain/scoring"
	"github.com/okian/sopmatch/internal/domain/similarity"
	"github.com/okian/sopmatch/internal/domain/textnorm"
	"github.com/okian/sopmatch/internal/domain/vectorspace"
	"github.com/okian/sopmatch/pkg/logger"
)

// scoreEpsilon is the grid composites are snapped to; composites on the
// same grid point are tied.
const scoreEpsilon = 1e-12

// Query is the part of a submission the matcher reads.
type Query struct {
	Text  string
	Field string
}

// QueryFor builds a Query from a stored submission.
func QueryFor(s model.Submission) Query {
	return Query{Text: s.Text, Field: s.DeclaredField()}
}

// topic is the text tags are matched against: the declared field, or the
// submission text when no field was declared.
func (q Query) topic() string {
	if strings.TrimSpace(q.Field) != "" {
		return q.Field
	}
	return q.Text
}

// Stats describes the work done by the last Match call.
type Stats struct {
	PoolSize       int
	VocabularySize int
}

// Matcher ranks reviewers by fused content, expertise and availability scores.
type Matcher struct {
	scorer     scoring.Scorer
	normalizer *textnorm.Normalizer
	ngramMax   int
	logger     logger.Logger
}

// New creates a Matcher with the default weights, no stop-word removal and
// unigram+bigram features.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		normalizer: textnorm.New(),
		ngramMax:   2,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.scorer == nil {
		// Default weights always validate.
		s, _ := scoring.NewWeightedScorer()
		m.scorer = s
	}
	return m
}

// Match returns up to topK reviewers from pool, best first. Ties keep pool
// order. An empty pool yields an empty, non-nil slice.
func (m *Matcher) Match(ctx context.Context, q Query, pool []model.Reviewer, topK int) ([]model.Match, error) {
	matches, _, err := m.MatchWithStats(ctx, q, pool, topK)
	return matches, err
}

// MatchWithStats is Match plus the size of the pool and vocabulary it scored.
func (m *Matcher) MatchWithStats(ctx context.Context, q Query, pool []model.Reviewer, topK int) ([]model.Match, Stats, error) {
	if topK <= 0 {
		return nil, Stats{}, fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidInput, topK)
	}
	if !utf8.ValidString(q.Text) || !utf8.ValidString(q.Field) {
		return nil, Stats{}, fmt.Errorf("%w: submission text is not valid UTF-8", ErrInvalidInput)
	}
	if len(pool) == 0 {
		return []model.Match{}, Stats{}, nil
	}

	docs := make([][]string, 0, len(pool)+1)
	docs = append(docs, m.normalizer.Normalize(q.Text))
	for _, r := range pool {
		docs = append(docs, m.normalizer.Normalize(r.Profile()))
	}
	space := vectorspace.Build(docs, vectorspace.WithNGramMax(m.ngramMax))
	subVec := space.Vector(0)
	topic := q.topic()

	matches := make([]model.Match, len(pool))
	for i, r := range pool {
		b := model.Breakdown{
			ContentSimilarity: similarity.Cosine(subVec, space.Vector(i+1)),
			ExpertiseMatch:    expertise.Match(topic, r.Expertise),
			Availability:      availability.Headroom(r.CurrentLoad, r.MaxCapacity),
		}
		matches[i] = model.Match{
			ReviewerID: r.ID,
			Name:       r.Name,
			Expertise:  append([]string(nil), r.Expertise...),
			Score:      snap(m.scorer.Score(b)),
			Breakdown:  b,
		}
	}

	sortByScore(matches)
	if topK < len(matches) {
		matches = matches[:topK]
	}

	stats := Stats{PoolSize: len(pool), VocabularySize: space.Dim()}
	m.logger.Debug(ctx, "ranked reviewer pool",
		logger.Int("pool", stats.PoolSize),
		logger.Int("vocabulary", stats.VocabularySize),
		logger.Int("returned", len(matches)),
	)
	return matches, stats, nil
}

// sortByScore orders matches by descending composite, keeping pool order
// for equal composites.
func sortByScore(matches []model.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
}

// snap rounds a composite to the scoreEpsilon grid.
func snap(score float64) float64 {
	return math.Min(1, math.Max(0, math.Round(score/scoreEpsilon)*scoreEpsilon))
}
