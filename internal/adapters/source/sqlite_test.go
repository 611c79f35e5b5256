package source_test

import (
	"context"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/userboard/internal/adapters/source"
	"github.com/okian/userboard/internal/domain/model"
)

func TestSQLiteSource(t *testing.T) {
	Convey("Given a fresh SQLite database", t, func() {
		ctx := context.Background()
		src, err := source.OpenSQLite(filepath.Join(t.TempDir(), "users.db"))
		So(err, ShouldBeNil)
		defer func() { _ = src.Close() }()

		Convey("When nothing has been seeded", func() {
			users, err := src.Fetch(ctx)

			Convey("Then it should return an empty, non-nil slice", func() {
				So(err, ShouldBeNil)
				So(users, ShouldNotBeNil)
				So(users, ShouldBeEmpty)
			})
		})

		Convey("When records are seeded", func() {
			seed := []model.UserRecord{
				{ID: "zed", TotalAverageWeightRatings: 4.2, NumberOfRents: 9, RecentlyActive: "1700000000"},
				{ID: "amy", TotalAverageWeightRatings: 1, NumberOfRents: 0, RecentlyActive: "garbage"},
				{ID: "amy", TotalAverageWeightRatings: 2, NumberOfRents: 1, RecentlyActive: "1"},
			}
			So(src.Seed(ctx, seed), ShouldBeNil)

			users, err := src.Fetch(ctx)

			Convey("Then they should come back unchanged and in insertion order", func() {
				So(err, ShouldBeNil)
				So(users, ShouldResemble, seed)
			})

			Convey("Then seeding again should replace the table", func() {
				So(src.Seed(ctx, seed[:1]), ShouldBeNil)
				users, err := src.Fetch(ctx)
				So(err, ShouldBeNil)
				So(users, ShouldResemble, seed[:1])
			})
		})

		So(src.Name(), ShouldEqual, "sqlite")
	})
}
