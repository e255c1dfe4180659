package testmatches

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/sopmatch/internal/adapters/http/api"
	service "github.com/okian/sopmatch/internal/app"
	"github.com/okian/sopmatch/internal/catalog"
	"github.com/okian/sopmatch/internal/domain/types"
	"github.com/okian/sopmatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestGenerateSubmission(t *testing.T) {
	Convey("Given a fixed picker", t, func() {
		zero := func(int) int { return 0 }
		one := func(n int) int { return 1 % n }

		Convey("When the picker selects the first option everywhere", func() {
			s := generateSubmission("sop-1", zero)

			Convey("Then the text names the first topic and preferences are omitted", func() {
				So(s.ID, ShouldEqual, "sop-1")
				So(s.Text, ShouldStartWith, openers[0])
				So(s.Text, ShouldContainSubstring, topics[0].field)
				So(s.Preferences, ShouldBeNil)
			})
		})

		Convey("When the picker selects index one", func() {
			s := generateSubmission("sop-2", one)

			Convey("Then the declared field matches the topic", func() {
				So(s.Preferences, ShouldNotBeNil)
				So(s.Preferences.Field, ShouldEqual, topics[1].field)
				So(strings.HasSuffix(s.Text, "."), ShouldBeTrue)
			})
		})
	})
}

func TestCheckResult(t *testing.T) {
	Convey("Given a well-formed result", t, func() {
		res := types.MatchResult{ID: "sop-1", TopK: 2, Matches: []types.Match{
			{Rank: 1, ReviewerID: "a", Score: 0.8, Breakdown: types.Breakdown{ContentSimilarity: 1, Availability: 1}},
			{Rank: 2, ReviewerID: "b", Score: 0.4},
		}}

		Convey("Then it passes", func() {
			So(checkResult(res, 2, 5), ShouldBeEmpty)
		})

		Convey("When the pool is smaller than top_k", func() {
			Convey("Then the expected length follows the pool", func() {
				So(checkResult(res, 10, 2), ShouldBeEmpty)
				So(checkResult(res, 10, 3), ShouldHaveLength, 1)
			})
		})

		Convey("When scores rise", func() {
			res.Matches[1].Score = 0.9

			Convey("Then the ordering violation is reported", func() {
				errs := checkResult(res, 2, 5)
				So(errs, ShouldHaveLength, 1)
				So(errs[0].Error(), ShouldContainSubstring, "score rises")
			})
		})

		Convey("When a component is out of range", func() {
			res.Matches[0].Breakdown.Availability = 1.5

			Convey("Then the bound violation is reported", func() {
				errs := checkResult(res, 2, 5)
				So(errs, ShouldHaveLength, 1)
				So(errs[0].Error(), ShouldContainSubstring, "availability")
			})
		})

		Convey("When ranks are wrong", func() {
			res.Matches[1].Rank = 3

			Convey("Then the rank violation is reported", func() {
				So(checkResult(res, 2, 5), ShouldHaveLength, 1)
			})
		})

		Convey("When the request failed", func() {
			res.Error = "boom"

			Convey("Then only the failure is reported", func() {
				So(checkResult(res, 2, 5), ShouldHaveLength, 1)
			})
		})

		Convey("Then sameRanking compares reviewer order", func() {
			other := res
			other.Matches = []types.Match{res.Matches[1], res.Matches[0]}
			So(sameRanking(res, res), ShouldBeTrue)
			So(sameRanking(res, other), ShouldBeFalse)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running sopmatch API", t, func() {
		ctx := context.Background()
		reviewers, err := catalog.Default()
		So(err, ShouldBeNil)

		svc := service.New(service.WithReviewers(reviewers), service.WithWorkerCount(2))
		So(svc.Start(ctx), ShouldBeNil)
		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)

		Reset(func() {
			srv.Close()
			svc.Stop()
		})

		Convey("When the smoke test runs against it", func() {
			out := filepath.Join(t.TempDir(), "subs", "generated.json")
			err := Run(ctx, &Config{
				BaseURL:        srv.URL,
				NumSubmissions: 25,
				TopK:           3,
				BatchSize:      10,
				Workers:        4,
				Timeout:        5 * time.Second,
				OutputFile:     out,
			})

			Convey("Then every ranking rule holds", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats()["submissions"], ShouldEqual, 25)
				_, statErr := os.Stat(out)
				So(statErr, ShouldBeNil)
			})
		})

		Convey("When the service is unreachable", func() {
			ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			err := Run(ctx, &Config{BaseURL: "http://127.0.0.1:1", NumSubmissions: 1, TopK: 1, Workers: 1, Timeout: time.Second})

			Convey("Then the health check fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "health check")
			})
		})
	})
}
