package scoring_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/sopmatch/internal/domain/model"
	scoring "github.com/okian/sopmatch/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWeights_Validate(t *testing.T) {
	Convey("Given weight sets", t, func() {
		Convey("When using the defaults", func() {
			w := scoring.DefaultWeights()

			Convey("Then they are 0.5/0.3/0.2 and valid", func() {
				So(w.Content, ShouldEqual, 0.5)
				So(w.Expertise, ShouldEqual, 0.3)
				So(w.Availability, ShouldEqual, 0.2)
				So(w.Validate(), ShouldBeNil)
			})
		})

		Convey("When the sum drifts by less than the tolerance", func() {
			w := scoring.Weights{Content: 0.1, Expertise: 0.2, Availability: 0.7}

			Convey("Then they are accepted", func() {
				So(w.Validate(), ShouldBeNil)
			})
		})

		Convey("When a weight is negative", func() {
			w := scoring.Weights{Content: 1.2, Expertise: -0.2, Availability: 0}

			Convey("Then validation fails", func() {
				err := w.Validate()
				So(errors.Is(err, scoring.ErrInvalidWeights), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "expertise")
			})
		})

		Convey("When the weights do not sum to one", func() {
			w := scoring.Weights{Content: 0.5, Expertise: 0.5, Availability: 0.5}

			Convey("Then validation fails", func() {
				So(errors.Is(w.Validate(), scoring.ErrInvalidWeights), ShouldBeTrue)
			})
		})

		Convey("When a weight is NaN", func() {
			w := scoring.Weights{Content: math.NaN(), Expertise: 0.5, Availability: 0.5}

			Convey("Then validation fails", func() {
				So(errors.Is(w.Validate(), scoring.ErrInvalidWeights), ShouldBeTrue)
			})
		})
	})
}

func TestFuse(t *testing.T) {
	Convey("Given a breakdown", t, func() {
		b := model.Breakdown{ContentSimilarity: 0.4, ExpertiseMatch: 1, Availability: 0.6}

		Convey("When fused with the defaults", func() {
			got := scoring.Fuse(scoring.DefaultWeights(), b)

			Convey("Then the composite is the weighted sum", func() {
				So(got, ShouldAlmostEqual, 0.5*0.4+0.3*1+0.2*0.6, 1e-12)
			})
		})

		Convey("When every signal is maximal", func() {
			got := scoring.Fuse(scoring.DefaultWeights(), model.Breakdown{ContentSimilarity: 1, ExpertiseMatch: 1, Availability: 1})

			Convey("Then the composite never exceeds one", func() {
				So(got, ShouldBeLessThanOrEqualTo, 1)
				So(got, ShouldAlmostEqual, 1, 1e-12)
			})
		})

		Convey("When every signal is zero", func() {
			So(scoring.Fuse(scoring.DefaultWeights(), model.Breakdown{}), ShouldEqual, 0)
		})
	})
}

func TestWeightedScorer(t *testing.T) {
	Convey("Given a weighted scorer", t, func() {
		Convey("When built with defaults", func() {
			s, err := scoring.NewWeightedScorer()

			Convey("Then it uses the default weights", func() {
				So(err, ShouldBeNil)
				So(s.Weights(), ShouldResemble, scoring.DefaultWeights())
				So(s.Score(model.Breakdown{Availability: 1}), ShouldAlmostEqual, 0.2, 1e-12)
			})
		})

		Convey("When built with content-only weights", func() {
			s, err := scoring.NewWeightedScorer(scoring.WithWeights(scoring.Weights{Content: 1}))

			Convey("Then only content counts", func() {
				So(err, ShouldBeNil)
				So(s.Score(model.Breakdown{ContentSimilarity: 0.7, ExpertiseMatch: 1, Availability: 1}), ShouldEqual, 0.7)
			})
		})

		Convey("When built with invalid weights", func() {
			s, err := scoring.NewWeightedScorer(scoring.WithWeights(scoring.Weights{Content: 2}))

			Convey("Then construction fails", func() {
				So(s, ShouldBeNil)
				So(errors.Is(err, scoring.ErrInvalidWeights), ShouldBeTrue)
			})
		})
	})
}
