package testusers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/userboard/internal/domain/model"
	"github.com/okian/userboard/internal/domain/ranking"
	"github.com/okian/userboard/pkg/logger"
)

const verifyTimeout = 10 * time.Second

type remotePage struct {
	Page []struct {
		ID string `json:"id"`
	} `json:"page"`
	TotalCount int `json:"total_count"`
}

// Verify asks the server at baseURL for the first page of users matching
// search and checks that ids and total count agree with ranking users
// locally.
//
// The reference instant shifts every finite score by the same amount, so
// order does not depend on when either side ranked.
func Verify(ctx context.Context, baseURL string, users []model.UserRecord, search string, pageSize int) error {
	log := logger.Get().Named("verify")

	want, err := ranking.RankAndPaginate(users, model.ViewParameters{SearchText: search, PageSize: pageSize})
	if err != nil {
		return fmt.Errorf("rank locally: %w", err)
	}

	q := url.Values{}
	q.Set("page", "0")
	q.Set("page_size", strconv.Itoa(pageSize))
	if search != "" {
		q.Set("search", search)
	}

	reqCtx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, baseURL+"/users?"+q.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("query server: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("query server: status %d", resp.StatusCode)
	}

	var got remotePage
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		return fmt.Errorf("decode server page: %w", err)
	}

	if got.TotalCount != want.TotalCount {
		return fmt.Errorf("total count mismatch: server %d, local %d", got.TotalCount, want.TotalCount)
	}
	if len(got.Page) != len(want.Records) {
		return fmt.Errorf("page length mismatch: server %d, local %d", len(got.Page), len(want.Records))
	}
	for i, rec := range want.Records {
		if got.Page[i].ID != rec.ID {
			return fmt.Errorf("position %d: server has %s, local has %s", i, got.Page[i].ID, rec.ID)
		}
	}

	log.Info(ctx, "server ranking verified",
		logger.Int("totalCount", got.TotalCount),
		logger.Int("checked", len(got.Page)),
	)
	return nil
}
