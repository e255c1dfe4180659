package service

import (
	"strings"

	"github.com/okian/sopmatch/internal/domain/model"
	"github.com/okian/sopmatch/internal/domain/types"
)

// assignmentSep separates reviewer and submission ids in the ledger value.
// Both ids come from JSON strings, which cannot carry a NUL byte unescaped.
const assignmentSep = "\x00"

func encodeAssignment(a types.Assignment) string {
	return a.ReviewerID + assignmentSep + a.SubmissionID
}

func decodeAssignment(id, value string) types.Assignment {
	reviewerID, submissionID, _ := strings.Cut(value, assignmentSep)
	return types.Assignment{AssignmentID: id, ReviewerID: reviewerID, SubmissionID: submissionID}
}

func fromTypesSubmission(in types.Submission) model.Submission {
	out := model.Submission{ID: in.ID, Text: in.Text}
	if in.Preferences != nil {
		out.Preferences = &model.Preferences{
			Field:       in.Preferences.Field,
			Priority:    in.Preferences.Priority,
			ReviewDepth: in.Preferences.ReviewDepth,
		}
	}
	return out
}

func toTypesSubmission(in model.Submission) types.Submission {
	out := types.Submission{ID: in.ID, Text: in.Text, CreatedAt: in.CreatedAt, UpdatedAt: in.UpdatedAt}
	if in.Preferences != nil {
		out.Preferences = &types.Preferences{
			Field:       in.Preferences.Field,
			Priority:    in.Preferences.Priority,
			ReviewDepth: in.Preferences.ReviewDepth,
		}
	}
	return out
}

func toMatchResult(id string, topK int, matches []model.Match) types.MatchResult {
	out := types.MatchResult{ID: id, TopK: topK, Matches: make([]types.Match, len(matches))}
	for i, m := range matches {
		out.Matches[i] = types.Match{
			Rank:       i + 1,
			ReviewerID: m.ReviewerID,
			Name:       m.Name,
			Expertise:  nonNil(m.Expertise),
			Score:      m.Score,
			Breakdown: types.Breakdown{
				ContentSimilarity: m.Breakdown.ContentSimilarity,
				ExpertiseMatch:    m.Breakdown.ExpertiseMatch,
				Availability:      m.Breakdown.Availability,
			},
		}
	}
	return out
}

func toTypesReviewer(r model.Reviewer) types.Reviewer {
	return types.Reviewer{
		ID:          r.ID,
		Name:        r.Name,
		Expertise:   nonNil(append([]string(nil), r.Expertise...)),
		Notes:       r.Notes,
		MaxCapacity: r.MaxCapacity,
		CurrentLoad: r.CurrentLoad,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
