package repository_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/userboard/internal/adapters/repository"
	"github.com/okian/userboard/internal/domain/model"
	"github.com/okian/userboard/internal/domain/pagination"
	"github.com/okian/userboard/internal/domain/ranking"
	"github.com/okian/userboard/internal/domain/scoring"
)

var refNow = time.Unix(1_700_000_000, 0)

func fixedClock() time.Time { return refNow }

func users() []model.UserRecord {
	return []model.UserRecord{
		{ID: "carol", TotalAverageWeightRatings: 3, NumberOfRents: 5, RecentlyActive: "1699000000"},
		{ID: "alice", TotalAverageWeightRatings: 5, NumberOfRents: 10, RecentlyActive: "1700000000"},
		{ID: "broken", TotalAverageWeightRatings: 5, NumberOfRents: 10, RecentlyActive: "yesterday"},
		{ID: "bob", TotalAverageWeightRatings: 4, NumberOfRents: 2, RecentlyActive: "1690000000"},
		{ID: "alice", TotalAverageWeightRatings: 1, NumberOfRents: 0, RecentlyActive: "1600000000"},
	}
}

func TestMemoryStore_Empty(t *testing.T) {
	Convey("Given a new store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(repository.WithClock(fixedClock))

		Convey("Then it should be empty and unversioned", func() {
			So(store.Count(ctx), ShouldEqual, 0)
			So(store.Snapshot(ctx).Version, ShouldBeEmpty)
			So(store.Snapshot(ctx).Weights, ShouldResemble, scoring.DefaultWeights())
		})

		Convey("Then queries should return an empty page", func() {
			page, err := store.Query(ctx, model.ViewParameters{PageSize: 5})
			So(err, ShouldBeNil)
			So(page.Records, ShouldBeEmpty)
			So(page.TotalCount, ShouldEqual, 0)
		})

		Convey("Then rank lookups should fail with not found", func() {
			_, err := store.Rank(ctx, "alice")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestMemoryStore_Replace(t *testing.T) {
	Convey("Given a store with a fixed clock", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(repository.WithClock(fixedClock))

		Convey("When records are published", func() {
			snap, err := store.Replace(ctx, users())
			So(err, ShouldBeNil)

			Convey("Then the snapshot should describe them", func() {
				So(snap.Version, ShouldNotBeEmpty)
				So(snap.TakenAt, ShouldEqual, refNow)
				So(snap.Size, ShouldEqual, 5)
				So(snap.NaNCount, ShouldEqual, 1)
				So(store.Snapshot(ctx), ShouldResemble, snap)
				So(store.Count(ctx), ShouldEqual, 5)
			})

			Convey("Then queries should match the direct pipeline", func() {
				params := model.ViewParameters{PageIndex: 0, PageSize: 3}
				want, err := ranking.RankAndPaginate(users(), params, ranking.WithNow(refNow))
				So(err, ShouldBeNil)

				got, err := store.Query(ctx, params)
				So(err, ShouldBeNil)
				So(got.TotalCount, ShouldEqual, want.TotalCount)
				So(len(got.Records), ShouldEqual, len(want.Records))
				for i := range want.Records {
					So(got.Records[i].ID, ShouldEqual, want.Records[i].ID)
					So(got.Records[i].CompositeScore, ShouldEqual, want.Records[i].CompositeScore)
				}
			})

			Convey("Then the top user should rank first and the malformed one last", func() {
				top, err := store.Rank(ctx, "alice")
				So(err, ShouldBeNil)
				So(top.Rank, ShouldEqual, 1)
				So(top.User.CompositeScore, ShouldAlmostEqual, 1.0, 1e-9)

				last, err := store.Rank(ctx, "broken")
				So(err, ShouldBeNil)
				So(last.Rank, ShouldEqual, 5)
				So(math.IsNaN(last.User.CompositeScore), ShouldBeTrue)
			})

			Convey("Then a search should keep global order", func() {
				page, err := store.Query(ctx, model.ViewParameters{SearchText: "ALI", PageSize: 10})
				So(err, ShouldBeNil)
				So(page.TotalCount, ShouldEqual, 2)
				So(page.Records[0].NumberOfRents, ShouldEqual, 10)
				So(page.Records[1].NumberOfRents, ShouldEqual, 0)
			})

			Convey("Then replacing again should publish a new version", func() {
				next, err := store.Replace(ctx, users()[:2])
				So(err, ShouldBeNil)
				So(next.Version, ShouldNotEqual, snap.Version)
				So(store.Count(ctx), ShouldEqual, 2)

				_, err = store.Rank(ctx, "bob")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			_, err := store.Replace(cctx, users())

			Convey("Then nothing should be published", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(store.Count(ctx), ShouldEqual, 0)
			})
		})
	})
}

func TestMemoryStore_InvalidQuery(t *testing.T) {
	Convey("Given a populated store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(repository.WithClock(fixedClock))
		_, err := store.Replace(ctx, users())
		So(err, ShouldBeNil)

		Convey("When the page size is zero", func() {
			_, err := store.Query(ctx, model.ViewParameters{PageSize: 0})
			So(errors.Is(err, pagination.ErrInvalidPageSize), ShouldBeTrue)
		})

		Convey("When the page index is negative", func() {
			_, err := store.Query(ctx, model.ViewParameters{PageIndex: -1, PageSize: 2})
			So(errors.Is(err, pagination.ErrInvalidPageIndex), ShouldBeTrue)
		})

		Convey("When the page index is past the end", func() {
			page, err := store.Query(ctx, model.ViewParameters{PageIndex: 9, PageSize: 2})
			So(err, ShouldBeNil)
			So(page.Records, ShouldBeEmpty)
			So(page.TotalCount, ShouldEqual, 5)
		})
	})
}

func TestMemoryStore_Weights(t *testing.T) {
	Convey("Given a store that only weighs rents", t, func() {
		ctx := context.Background()
		w := scoring.Weights{Rents: 1}
		store := repository.NewMemoryStore(repository.WithClock(fixedClock), repository.WithWeights(w))
		_, err := store.Replace(ctx, users())
		So(err, ShouldBeNil)

		Convey("Then the snapshot should carry the weights", func() {
			So(store.Snapshot(ctx).Weights, ShouldResemble, w)
		})

		Convey("Then bob should score his share of the maximum rents", func() {
			e, err := store.Rank(ctx, "bob")
			So(err, ShouldBeNil)
			So(e.User.CompositeScore, ShouldAlmostEqual, 0.2, 1e-9)
		})
	})
}

func TestMemoryStore_Concurrency(t *testing.T) {
	Convey("Given concurrent readers and writers", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(repository.WithClock(fixedClock))

		var wg sync.WaitGroup
		errs := make(chan error, 200)
		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					if _, err := store.Replace(ctx, users()); err != nil {
						errs <- err
					}
				}
			}()
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					page, err := store.Query(ctx, model.ViewParameters{PageSize: 2})
					if err != nil {
						errs <- err
						continue
					}
					if page.TotalCount != 0 && page.TotalCount != 5 {
						errs <- errors.New("observed a partial snapshot")
					}
				}
			}()
		}
		wg.Wait()
		close(errs)

		Convey("Then every operation should succeed on a whole snapshot", func() {
			var collected []error
			for err := range errs {
				collected = append(collected, err)
			}
			So(collected, ShouldBeEmpty)
			So(store.Count(ctx), ShouldEqual, 5)
		})
	})
}
