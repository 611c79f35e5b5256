package api

import (
	"math"
	"time"

	"github.com/okian/userboard/internal/adapters/repository"
	"github.com/okian/userboard/internal/domain/model"
	"github.com/okian/userboard/internal/domain/pagination"
)

// UserView is the wire shape of a scored user. encoding/json rejects NaN,
// so a score that is not a finite number is sent as null.
type UserView struct {
	ID                        string   `json:"id"`
	TotalAverageWeightRatings float64  `json:"totalAverageWeightRatings"`
	NumberOfRents             int      `json:"numberOfRents"`
	RecentlyActive            string   `json:"recentlyActive"`
	CompositeScore            *float64 `json:"compositeScore"`
}

// NewUserView converts a scored record to its wire shape.
func NewUserView(r model.ScoredUserRecord) UserView { //nolint:gocritic // hugeParam: records are passed by value across the domain
	v := UserView{
		ID:                        r.ID,
		TotalAverageWeightRatings: r.TotalAverageWeightRatings,
		NumberOfRents:             r.NumberOfRents,
		RecentlyActive:            r.RecentlyActive,
	}
	if !math.IsNaN(r.CompositeScore) && !math.IsInf(r.CompositeScore, 0) {
		score := r.CompositeScore
		v.CompositeScore = &score
	}
	return v
}

// PageResponse is the body of GET /users.
type PageResponse struct {
	Page       []UserView `json:"page"`
	TotalCount int        `json:"total_count"`
	PageIndex  int        `json:"page_index"`
	PageSize   int        `json:"page_size"`
	PageCount  int        `json:"page_count"`
}

// NewPageResponse describes page as the pageIndex-th page of pageSize users.
func NewPageResponse(page model.Page, pageIndex, pageSize int) PageResponse {
	resp := PageResponse{
		Page:       make([]UserView, 0, len(page.Records)),
		TotalCount: page.TotalCount,
		PageIndex:  pageIndex,
		PageSize:   pageSize,
		PageCount:  pagination.PageCount(page.TotalCount, pageSize),
	}
	for _, rec := range page.Records {
		resp.Page = append(resp.Page, NewUserView(rec))
	}
	return resp
}

// RankResponse is the body of GET /users/{id}/rank.
type RankResponse struct {
	Rank int      `json:"rank"`
	User UserView `json:"user"`
}

// NewRankResponse pairs a 1-based rank with the user's wire shape.
func NewRankResponse(rank int, rec model.ScoredUserRecord) RankResponse { //nolint:gocritic // hugeParam: see NewUserView
	return RankResponse{Rank: rank, User: NewUserView(rec)}
}

type snapshotResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	TakenAt  string `json:"taken_at"`
	Size     int    `json:"size"`
	NaNCount int    `json:"nan_count"`
}

func toSnapshotResponse(s repository.Snapshot) snapshotResponse {
	return snapshotResponse{
		Status:   "refreshed",
		Version:  s.Version,
		TakenAt:  s.TakenAt.UTC().Format(time.RFC3339),
		Size:     s.Size,
		NaNCount: s.NaNCount,
	}
}
