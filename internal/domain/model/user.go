// Package model contains domain models passed between layers.
package model

// UserRecord is a raw user row as supplied by a user source.
// Field names mirror the upstream /api/users payload.
type UserRecord struct {
	ID                        string  `json:"id" yaml:"id"`
	TotalAverageWeightRatings float64 `json:"totalAverageWeightRatings" yaml:"totalAverageWeightRatings"`
	NumberOfRents             int     `json:"numberOfRents" yaml:"numberOfRents"`
	RecentlyActive            string  `json:"recentlyActive" yaml:"recentlyActive"` // epoch seconds as a string
}

// ScoredUserRecord is a UserRecord annotated with its composite score.
// CompositeScore is NaN when the record's recency could not be parsed.
type ScoredUserRecord struct {
	UserRecord
	CompositeScore float64 `json:"compositeScore"`
}

// ViewParameters carries the caller-owned view state for one query.
type ViewParameters struct {
	SearchText string
	PageIndex  int // zero-based
	PageSize   int
}

// Page is one slice of the filtered, ranked sequence.
type Page struct {
	Records    []ScoredUserRecord
	TotalCount int // matches after filtering, before slicing
}
