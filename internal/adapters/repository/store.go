// Package repository holds the published, ranked user snapshot.
package repository

import (
	"context"
	"time"

	"github.com/okian/userboard/internal/domain/model"
	"github.com/okian/userboard/internal/domain/scoring"
)

// Entry is one user's position in the full ranking.
type Entry struct {
	Rank int // 1-based, before any search filter
	User model.ScoredUserRecord
}

// Snapshot describes the currently published ranking.
type Snapshot struct {
	Version  string // empty until the first Replace
	TakenAt  time.Time
	Size     int
	NaNCount int
	Weights  scoring.Weights
}

// Store provides read/write access to the ranking state.
type Store interface {
	// Replace scores and ranks records and publishes them atomically.
	Replace(ctx context.Context, records []model.UserRecord) (Snapshot, error)

	// Query filters and paginates the published ranking.
	Query(ctx context.Context, params model.ViewParameters) (model.Page, error)

	// Rank returns the position of id in the full ranking.
	// Returns ErrNotFound if the user is unknown.
	Rank(ctx context.Context, id string) (Entry, error)

	// Count returns the number of ranked users.
	Count(ctx context.Context) int

	// Snapshot describes the published ranking.
	Snapshot(ctx context.Context) Snapshot
}
