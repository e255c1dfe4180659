package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/okian/sopmatch/internal/domain/types"
)

// TableTo writes data as a formatted table to the given writer
func TableTo(w io.Writer, data any) error {
	switch v := data.(type) {
	case types.MatchResult:
		return matchesTable(w, v.Matches)
	case []types.Match:
		return matchesTable(w, v)
	case []types.Reviewer:
		return reviewersTable(w, v)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, data)
	}
}

func matchesTable(w io.Writer, matches []types.Match) error {
	if len(matches) == 0 {
		_, err := fmt.Fprintln(w, "No reviewers in the pool.")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Rank", "Reviewer", "Name", "Score", "Content", "Expertise", "Availability")
	for _, m := range matches {
		if err := table.Append(
			strconv.Itoa(m.Rank),
			m.ReviewerID,
			m.Name,
			score(m.Score),
			score(m.Breakdown.ContentSimilarity),
			score(m.Breakdown.ExpertiseMatch),
			score(m.Breakdown.Availability),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

func reviewersTable(w io.Writer, reviewers []types.Reviewer) error {
	if len(reviewers) == 0 {
		_, err := fmt.Fprintln(w, "No reviewers in the catalog.")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "Expertise", "Load")
	for _, r := range reviewers {
		if err := table.Append(
			r.ID,
			r.Name,
			truncate(strings.Join(r.Expertise, ", "), 48),
			fmt.Sprintf("%d/%d", r.CurrentLoad, r.MaxCapacity),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

func score(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
