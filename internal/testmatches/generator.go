package testmatches

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/sopmatch/internal/domain/types"
	"github.com/okian/sopmatch/pkg/logger"
)

// topic is a research area with phrases a statement might use.
type topic struct {
	field   string
	phrases []string
}

var topics = []topic{
	{field: "machine learning", phrases: []string{"deep learning", "neural networks", "model training", "representation learning"}},
	{field: "natural language processing", phrases: []string{"language models", "machine translation", "text classification"}},
	{field: "computational biology", phrases: []string{"genomics", "protein folding", "sequence alignment"}},
	{field: "finance", phrases: []string{"asset pricing", "corporate finance", "risk management"}},
	{field: "distributed systems", phrases: []string{"consensus protocols", "fault tolerance", "cloud infrastructure"}},
	{field: "human computer interaction", phrases: []string{"user studies", "interface design", "accessibility"}},
}

var openers = []string{
	"I am applying because I want to pursue research in",
	"My undergraduate thesis focused on",
	"During my internship I worked on",
	"I hope to contribute to the field through work on",
}

// generateSubmissions creates submissions with unique ids. Roughly one in
// four omits preferences so the expertise signal falls back to the text.
func generateSubmissions(ctx context.Context, config *Config, stats *Stats) []Submission {
	logger.Get().Info(ctx, "generating submissions", logger.Int("count", config.NumSubmissions))

	subs := make([]Submission, config.NumSubmissions)
	for i := range subs {
		subs[i] = generateSubmission(uuid.NewString(), rand.IntN)
	}

	stats.SubmissionsGenerated = len(subs)
	return subs
}

// generateSubmission builds one statement from pick, which returns an int in [0, n).
func generateSubmission(id string, pick func(n int) int) Submission {
	t := topics[pick(len(topics))]

	var b strings.Builder
	b.WriteString(openers[pick(len(openers))])
	b.WriteString(" ")
	b.WriteString(t.field)
	for i := 0; i < 2; i++ {
		b.WriteString(", especially ")
		b.WriteString(t.phrases[pick(len(t.phrases))])
	}
	b.WriteString(".")

	s := Submission{ID: id, Text: b.String()}
	if pick(4) != 0 {
		s.Preferences = &types.Preferences{Field: t.field}
	}
	return s
}
