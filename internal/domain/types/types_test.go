package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/sopmatch/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMatchResultJSON(t *testing.T) {
	Convey("Given a match result", t, func() {
		res := types.MatchResult{
			ID:   "sop-1",
			TopK: 2,
			Matches: []types.Match{{
				Rank:       1,
				ReviewerID: "r1",
				Name:       "Ada",
				Expertise:  []string{"AI"},
				Score:      0.75,
				Breakdown:  types.Breakdown{ContentSimilarity: 0.5, ExpertiseMatch: 1, Availability: 1},
			}},
		}

		Convey("When encoded", func() {
			b, err := json.Marshal(res)
			So(err, ShouldBeNil)

			Convey("Then it uses snake_case field names and omits an empty error", func() {
				s := string(b)
				So(s, ShouldContainSubstring, `"top_k":2`)
				So(s, ShouldContainSubstring, `"reviewer_id":"r1"`)
				So(s, ShouldContainSubstring, `"content_similarity":0.5`)
				So(s, ShouldContainSubstring, `"expertise_match":1`)
				So(s, ShouldNotContainSubstring, `"error"`)
			})
		})
	})
}

func TestSubmissionJSON(t *testing.T) {
	Convey("Given a submission request body", t, func() {
		body := `{"id":"sop-1","text":"hello","preferences":{"field":"AI","review_depth":"in-depth"}}`

		Convey("When decoded", func() {
			var s types.Submission
			So(json.Unmarshal([]byte(body), &s), ShouldBeNil)

			Convey("Then preferences are populated", func() {
				So(s.Preferences, ShouldNotBeNil)
				So(s.Preferences.Field, ShouldEqual, "AI")
				So(s.Preferences.ReviewDepth, ShouldEqual, "in-depth")
				So(s.Preferences.Priority, ShouldEqual, "")
			})
		})

		Convey("When preferences are absent", func() {
			var s types.Submission
			So(json.Unmarshal([]byte(`{"id":"x","text":"y"}`), &s), ShouldBeNil)

			Convey("Then they stay nil", func() {
				So(s.Preferences, ShouldBeNil)
			})
		})
	})
}
