package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/userboard/internal/adapters/http/api"
	"github.com/okian/userboard/internal/adapters/repository"
	"github.com/okian/userboard/internal/domain/model"
	"github.com/okian/userboard/pkg/logger"
)

var refNow = time.Unix(1_700_000_000, 0)

// storeDeps serves reads from a real MemoryStore and refreshes from a fixed
// record set.
type storeDeps struct {
	*repository.MemoryStore
	next       []model.UserRecord
	refreshErr error
	usersErr   error
}

func (d *storeDeps) Refresh(ctx context.Context) error {
	if d.refreshErr != nil {
		return d.refreshErr
	}
	_, err := d.Replace(ctx, d.next)
	return err
}

func (d *storeDeps) Users(ctx context.Context, params model.ViewParameters) (model.Page, error) {
	if d.usersErr != nil {
		return model.Page{}, d.usersErr
	}
	return d.Query(ctx, params)
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any {
	return m.stats
}

func fixture() []model.UserRecord {
	return []model.UserRecord{
		{ID: "bob", TotalAverageWeightRatings: 4, NumberOfRents: 2, RecentlyActive: "1690000000"},
		{ID: "alice", TotalAverageWeightRatings: 5, NumberOfRents: 10, RecentlyActive: "1700000000"},
		{ID: "ghost", TotalAverageWeightRatings: 5, NumberOfRents: 10, RecentlyActive: "n/a"},
		{ID: "carol", TotalAverageWeightRatings: 3, NumberOfRents: 5, RecentlyActive: "1699000000"},
		{ID: "alina", TotalAverageWeightRatings: 2, NumberOfRents: 1, RecentlyActive: "1680000000"},
	}
}

func newTestServer(deps *storeDeps, opts ...api.Option) http.Handler {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]any{"started": true}}, opts...).Register(mux)
	return api.RequestIDMiddleware(api.LoggingMiddleware(logger.Nop())(mux))
}

func newDeps() *storeDeps {
	store := repository.NewMemoryStore(repository.WithClock(func() time.Time { return refNow }))
	if _, err := store.Replace(context.Background(), fixture()); err != nil {
		panic(err)
	}
	return &storeDeps{MemoryStore: store, next: fixture()[:2]}
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, http.NoBody))
	return rec
}

type pageBody struct {
	Page []struct {
		ID             string   `json:"id"`
		NumberOfRents  int      `json:"numberOfRents"`
		RecentlyActive string   `json:"recentlyActive"`
		CompositeScore *float64 `json:"compositeScore"`
	} `json:"page"`
	TotalCount int `json:"total_count"`
	PageIndex  int `json:"page_index"`
	PageSize   int `json:"page_size"`
	PageCount  int `json:"page_count"`
}

func decodePage(rec *httptest.ResponseRecorder) pageBody {
	var body pageBody
	So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
	return body
}

func TestUsersEndpoint(t *testing.T) {
	Convey("Given a server over a ranked store", t, func() {
		h := newTestServer(newDeps(), api.WithDefaultPageSize(2), api.WithMaxPageSize(3))

		Convey("When requesting the first page with defaults", func() {
			rec := do(h, http.MethodGet, "/users")

			Convey("Then it should return the top users and paging info", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				body := decodePage(rec)
				So(body.TotalCount, ShouldEqual, 5)
				So(body.PageIndex, ShouldEqual, 0)
				So(body.PageSize, ShouldEqual, 2)
				So(body.PageCount, ShouldEqual, 3)
				So(len(body.Page), ShouldEqual, 2)
				So(body.Page[0].ID, ShouldEqual, "alice")
				So(*body.Page[0].CompositeScore, ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		Convey("When requesting the last page", func() {
			body := decodePage(do(h, http.MethodGet, "/users?page=2"))

			Convey("Then the unparseable user should come last with a null score", func() {
				So(len(body.Page), ShouldEqual, 1)
				So(body.Page[0].ID, ShouldEqual, "ghost")
				So(body.Page[0].CompositeScore, ShouldBeNil)
			})
		})

		Convey("When requesting a page past the end", func() {
			rec := do(h, http.MethodGet, "/users?page=10")

			Convey("Then it should return an empty page array, not null", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"page":[]`)
				So(decodePage(rec).TotalCount, ShouldEqual, 5)
			})
		})

		Convey("When searching", func() {
			body := decodePage(do(h, http.MethodGet, "/users?search=AL&page_size=3"))

			Convey("Then matches should keep their global order", func() {
				So(body.TotalCount, ShouldEqual, 2)
				So(body.Page[0].ID, ShouldEqual, "alice")
				So(body.Page[1].ID, ShouldEqual, "alina")
				So(body.PageCount, ShouldEqual, 1)
			})
		})

		Convey("When the query parameters are invalid", func() {
			for _, target := range []string{
				"/users?page_size=0",
				"/users?page_size=-1",
				"/users?page_size=4",
				"/users?page_size=two",
				"/users?page=-1",
				"/users?page=first",
			} {
				rec := do(h, http.MethodGet, target)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, `"code":"invalid_page`)
			}
		})

		Convey("When the method is not allowed", func() {
			rec := do(h, http.MethodDelete, "/users")
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})

	Convey("Given dependencies that fail", t, func() {
		deps := newDeps()
		deps.usersErr = errors.New("disk on fire")
		h := newTestServer(deps)

		rec := do(h, http.MethodGet, "/users")

		So(rec.Code, ShouldEqual, http.StatusInternalServerError)
		So(rec.Body.String(), ShouldContainSubstring, "api.get_users")
	})
}

func TestRankEndpoint(t *testing.T) {
	Convey("Given a server over a ranked store", t, func() {
		h := newTestServer(newDeps())

		Convey("When looking up a known user", func() {
			rec := do(h, http.MethodGet, "/users/carol/rank")

			Convey("Then it should return the global rank", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Rank int `json:"rank"`
					User struct {
						ID string `json:"id"`
					} `json:"user"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body.Rank, ShouldEqual, 2)
				So(body.User.ID, ShouldEqual, "carol")
			})
		})

		Convey("When looking up a user with an unparseable timestamp", func() {
			rec := do(h, http.MethodGet, "/users/ghost/rank")

			Convey("Then the score should be null", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"compositeScore":null`)
				So(rec.Body.String(), ShouldContainSubstring, `"rank":5`)
			})
		})

		Convey("When looking up an unknown user", func() {
			rec := do(h, http.MethodGet, "/users/nobody/rank")

			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(rec.Body.String(), ShouldContainSubstring, `"code":"not_found"`)
		})
	})
}

func TestRefreshEndpoint(t *testing.T) {
	Convey("Given a server whose source works", t, func() {
		deps := newDeps()
		h := newTestServer(deps)

		rec := do(h, http.MethodPost, "/refresh")

		Convey("Then it should publish and describe a new snapshot", func() {
			So(rec.Code, ShouldEqual, http.StatusAccepted)
			var body map[string]any
			So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
			So(body["status"], ShouldEqual, "refreshed")
			So(body["size"], ShouldEqual, 2.0)
			So(body["version"], ShouldNotBeEmpty)
			So(body["taken_at"], ShouldEqual, "2023-11-14T22:13:20Z")
			So(deps.Count(context.Background()), ShouldEqual, 2)
		})
	})

	Convey("Given a server whose source fails", t, func() {
		deps := newDeps()
		deps.refreshErr = errors.New("upstream 503")
		h := newTestServer(deps)

		rec := do(h, http.MethodPost, "/refresh")

		Convey("Then it should answer 502 and keep the old snapshot", func() {
			So(rec.Code, ShouldEqual, http.StatusBadGateway)
			So(rec.Body.String(), ShouldContainSubstring, "upstream_error")
			So(deps.Count(context.Background()), ShouldEqual, 5)
		})
	})

	Convey("Given a GET on the refresh route", t, func() {
		rec := do(newTestServer(newDeps()), http.MethodGet, "/refresh")
		So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given a server", t, func() {
		h := newTestServer(newDeps())

		Convey("Then /healthz should report ok", func() {
			rec := do(h, http.MethodGet, "/healthz")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(rec.Body.String()), ShouldEqual, `{"status":"ok"}`)
		})

		Convey("Then /stats should expose the provider's stats", func() {
			rec := do(h, http.MethodGet, "/stats")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then /metrics should expose recorded HTTP metrics", func() {
			do(h, http.MethodGet, "/healthz")
			rec := do(h, http.MethodGet, "/metrics")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "userboard_ranking_http_requests_total")
		})
	})
}

func TestRequestID(t *testing.T) {
	Convey("Given a server", t, func() {
		h := newTestServer(newDeps())

		Convey("When the caller supplies a request id", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			So(rec.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
		})

		Convey("When the caller omits it", func() {
			rec := do(h, http.MethodGet, "/healthz")

			Convey("Then a UUID should be generated", func() {
				So(len(rec.Header().Get(api.RequestIDHeader)), ShouldEqual, 36)
			})
		})
	})

	Convey("Given a handler reading the id from context", t, func() {
		var seen string
		h := api.RequestIDMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			seen = api.RequestIDFromContext(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.Header.Set(api.RequestIDHeader, "from-caller")
		h.ServeHTTP(httptest.NewRecorder(), req)

		So(seen, ShouldEqual, "from-caller")
		So(api.RequestIDFromContext(context.Background()), ShouldBeEmpty)
	})
}
