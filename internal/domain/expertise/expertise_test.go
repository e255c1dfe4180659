package expertise_test

import (
	"testing"

	"github.com/okian/sopmatch/internal/domain/expertise"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMatch(t *testing.T) {
	Convey("Given a declared field", t, func() {
		field := "Machine Learning, Computer Vision"

		Convey("When every tag is contained", func() {
			So(expertise.Match(field, []string{"machine learning", " COMPUTER VISION "}), ShouldEqual, 1)
		})

		Convey("When half the tags are contained", func() {
			So(expertise.Match(field, []string{"Machine Learning", "Robotics"}), ShouldEqual, 0.5)
		})

		Convey("When no tag is contained", func() {
			So(expertise.Match(field, []string{"Economics"}), ShouldEqual, 0)
		})

		Convey("When the reviewer has no tags", func() {
			So(expertise.Match(field, nil), ShouldEqual, 0)
		})

		Convey("When a tag is blank", func() {
			Convey("Then it counts toward the total without matching", func() {
				So(expertise.Match(field, []string{"", "machine learning"}), ShouldEqual, 0.5)
			})
		})

		Convey("When the declared field is empty", func() {
			So(expertise.Match("", []string{"AI"}), ShouldEqual, 0)
		})

		Convey("When a tag is only a near miss", func() {
			Convey("Then no fuzzy match is made", func() {
				So(expertise.Match(field, []string{"machine-learning"}), ShouldEqual, 0)
			})
		})
	})
}
