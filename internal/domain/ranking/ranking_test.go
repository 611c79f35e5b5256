package ranking_test

import (
	"math"
	"testing"

	"github.com/okian/userboard/internal/domain/model"
	"github.com/okian/userboard/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func scored(id string, score float64) model.ScoredUserRecord {
	return model.ScoredUserRecord{UserRecord: model.UserRecord{ID: id}, CompositeScore: score}
}

func ids(recs []model.ScoredUserRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestRank(t *testing.T) {
	Convey("Given scored records in arbitrary order", t, func() {
		in := []model.ScoredUserRecord{
			scored("low", 0.1),
			scored("high", 0.9),
			scored("mid", 0.5),
		}

		Convey("When ranking them", func() {
			out := ranking.Rank(in)

			Convey("Then they should be ordered by score descending", func() {
				So(ids(out), ShouldResemble, []string{"high", "mid", "low"})
			})

			Convey("And the input should not be reordered", func() {
				So(ids(in), ShouldResemble, []string{"low", "high", "mid"})
			})
		})
	})

	Convey("Given records with tied scores", t, func() {
		in := []model.ScoredUserRecord{
			scored("first", 0.5),
			scored("top", 0.8),
			scored("second", 0.5),
			scored("third", 0.5),
		}

		Convey("Then ties should keep their input order", func() {
			So(ids(ranking.Rank(in)), ShouldResemble, []string{"top", "first", "second", "third"})
		})
	})

	Convey("Given records with NaN scores", t, func() {
		in := []model.ScoredUserRecord{
			scored("nan-a", math.NaN()),
			scored("neg", -0.4),
			scored("nan-b", math.NaN()),
			scored("pos", 0.3),
		}

		Convey("Then NaN records should sort last in input order", func() {
			So(ids(ranking.Rank(in)), ShouldResemble, []string{"pos", "neg", "nan-a", "nan-b"})
		})

		Convey("And repeated ranking should be identical", func() {
			So(ids(ranking.Rank(in)), ShouldResemble, ids(ranking.Rank(in)))
		})
	})

	Convey("Given no records", t, func() {
		Convey("Then ranking should return an empty, non-nil slice", func() {
			out := ranking.Rank(nil)
			So(out, ShouldNotBeNil)
			So(out, ShouldBeEmpty)
		})
	})
}

func TestFilter(t *testing.T) {
	Convey("Given ranked records", t, func() {
		ranked := []model.ScoredUserRecord{
			scored("abc123", 0.9),
			scored("xyz", 0.8),
			scored("ZABCZ", 0.7),
			scored("other", 0.6),
		}

		Convey("When searching with different case", func() {
			out := ranking.Filter(ranked, "ABC")

			Convey("Then substring matches should be kept in rank order", func() {
				So(ids(out), ShouldResemble, []string{"abc123", "ZABCZ"})
			})
		})

		Convey("When the search text is empty", func() {
			out := ranking.Filter(ranked, "")

			Convey("Then every record should be kept", func() {
				So(ids(out), ShouldResemble, ids(ranked))
			})

			Convey("And the result should be a new slice", func() {
				out[0].CompositeScore = -1
				So(ranked[0].CompositeScore, ShouldEqual, 0.9)
			})
		})

		Convey("When nothing matches", func() {
			out := ranking.Filter(ranked, "nope")

			Convey("Then the result should be empty, not nil", func() {
				So(out, ShouldNotBeNil)
				So(out, ShouldBeEmpty)
			})
		})
	})
}
