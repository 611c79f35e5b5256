package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/userboard/internal/domain/model"
	"github.com/okian/userboard/internal/domain/pagination"
	"github.com/okian/userboard/internal/domain/ranking"
	"github.com/okian/userboard/internal/domain/scoring"
	"github.com/okian/userboard/pkg/metrics"
)

// state is an immutable published ranking. Readers load it without locking.
type state struct {
	ranked *ranking.Ranked
	all    []model.ScoredUserRecord
	index  map[string]int // id -> zero-based position of its first occurrence
	info   Snapshot
}

// MemoryStore is an in-memory Store. Replace builds a new state off to the
// side and swaps it in, so queries never observe a half-built ranking.
type MemoryStore struct {
	weights scoring.Weights
	now     func() time.Time

	mu    sync.Mutex // serializes writers
	state atomic.Pointer[state]
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		weights: scoring.DefaultWeights(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	empty := ranking.Prepare(nil, ranking.WithWeights(s.weights), ranking.WithNow(s.now()))
	s.state.Store(&state{
		ranked: empty,
		index:  map[string]int{},
		info:   Snapshot{Weights: s.weights},
	})
	return s
}

// Replace implements Store.
func (s *MemoryStore) Replace(ctx context.Context, records []model.UserRecord) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("replace snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	at := s.now()
	ranked := ranking.Prepare(records, ranking.WithWeights(s.weights), ranking.WithNow(at))

	all := ranked.Records()
	index := make(map[string]int, len(all))
	nan := 0
	for i, rec := range all {
		if _, seen := index[rec.ID]; !seen {
			index[rec.ID] = i
		}
		if math.IsNaN(rec.CompositeScore) {
			nan++
		}
	}

	info := Snapshot{
		Version:  uuid.NewString(),
		TakenAt:  at,
		Size:     len(all),
		NaNCount: nan,
		Weights:  s.weights,
	}
	s.state.Store(&state{ranked: ranked, all: all, index: index, info: info})

	metrics.RecordPipelineRun(float64(time.Since(start).Microseconds())/1000, info.Size, nan, at.Unix())
	return info, nil
}

// Query implements Store.
func (s *MemoryStore) Query(ctx context.Context, params model.ViewParameters) (model.Page, error) {
	if err := ctx.Err(); err != nil {
		return model.Page{}, err
	}

	start := time.Now()
	page, err := s.state.Load().ranked.View(params)
	if err != nil {
		switch {
		case errors.Is(err, pagination.ErrInvalidPageSize):
			metrics.RecordInvalidQuery("page_size")
		case errors.Is(err, pagination.ErrInvalidPageIndex):
			metrics.RecordInvalidQuery("page_index")
		}
		return model.Page{}, err
	}

	metrics.RecordQuery(params.SearchText != "", page.TotalCount, float64(time.Since(start).Microseconds())/1000)
	return page, nil
}

// Rank implements Store.
func (s *MemoryStore) Rank(ctx context.Context, id string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	st := s.state.Load()
	pos, ok := st.index[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return Entry{Rank: pos + 1, User: st.all[pos]}, nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	return s.state.Load().info.Size
}

// Snapshot implements Store.
func (s *MemoryStore) Snapshot(_ context.Context) Snapshot {
	return s.state.Load().info
}
