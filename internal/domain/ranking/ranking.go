// Package ranking orders scored user records and narrows them by search text.
//
// Ordering: composite score DESC; equal scores keep their input order.
// NaN scores rank below every number and keep input order among themselves.
package ranking

import (
	"cmp"
	"slices"
	"strings"

	"github.com/okian/userboard/internal/domain/model"
)

// compare orders a before b when a has the higher score. cmp.Compare treats
// NaN as less than any number, so reversing the arguments puts NaN last.
func compare(a, b model.ScoredUserRecord) int {
	return cmp.Compare(b.CompositeScore, a.CompositeScore)
}

// Rank returns a copy of scored sorted by composite score descending.
// The sort is stable.
func Rank(scored []model.ScoredUserRecord) []model.ScoredUserRecord {
	out := slices.Clone(scored)
	if out == nil {
		out = []model.ScoredUserRecord{}
	}
	slices.SortStableFunc(out, compare)
	return out
}

// Filter keeps the records whose id contains searchText, ignoring case.
// An empty searchText keeps everything. Order is preserved and the result is
// always a new slice.
func Filter(ranked []model.ScoredUserRecord, searchText string) []model.ScoredUserRecord {
	if searchText == "" {
		out := slices.Clone(ranked)
		if out == nil {
			out = []model.ScoredUserRecord{}
		}
		return out
	}

	needle := strings.ToLower(searchText)
	out := make([]model.ScoredUserRecord, 0, len(ranked))
	for _, r := range ranked {
		if strings.Contains(strings.ToLower(r.ID), needle) {
			out = append(out, r)
		}
	}
	return out
}
