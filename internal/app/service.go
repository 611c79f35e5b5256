// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/userboard/internal/adapters/refresh"
	"github.com/okian/userboard/internal/adapters/repository"
	"github.com/okian/userboard/internal/adapters/source"
	"github.com/okian/userboard/internal/domain/model"
	"github.com/okian/userboard/internal/domain/scoring"
	"github.com/okian/userboard/pkg/logger"
	"github.com/okian/userboard/pkg/metrics"
)

const (
	defaultRefreshInterval = time.Minute
	stopTimeout            = 5 * time.Second
)

// Service fetches users from a source, publishes ranked snapshots and
// answers page and rank queries against the latest one.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	src       source.Source
	refresher *refresh.Refresher
	cancelRun context.CancelFunc

	// Configuration
	weights         scoring.Weights
	refreshInterval time.Duration
	now             func() time.Time

	// State
	started   bool
	starting  bool
	refreshMu sync.Mutex // serializes fetch-and-publish cycles

	statMu      sync.Mutex
	lastRefresh time.Time
	lastErr     error

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource sets where users are fetched from.
func WithSource(src source.Source) Option {
	return func(s *Service) {
		s.src = src
	}
}

// WithWeights sets the composite score weights.
func WithWeights(w scoring.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithRefreshInterval sets how often users are re-fetched. Zero disables
// periodic refresh.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.refreshInterval = d
		}
	}
}

// WithClock sets the source of the reference instant used for scoring.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithStore replaces the snapshot store. When set, WithWeights and
// WithClock only affect what GetStats reports.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		weights:         scoring.DefaultWeights(),
		refreshInterval: defaultRefreshInterval,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(
			repository.WithWeights(s.weights),
			repository.WithClock(s.now),
		)
	}

	return s
}

// Start performs an initial load and launches periodic refresh. A failed
// initial load is logged and the service starts with an empty ranking.
// The initial load runs without holding the service lock, so stats stay
// readable while a slow source is retried.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started || s.starting {
		s.mu.Unlock()
		return nil
	}
	if s.src == nil {
		s.mu.Unlock()
		return ErrNoSource
	}
	s.starting = true
	s.mu.Unlock()

	s.logger.Info(ctx, "starting userboard service...",
		logger.String("source", s.src.Name()),
		logger.Duration("refreshInterval", s.refreshInterval),
	)

	err := s.refresh(ctx)
	metrics.RecordRefresh("startup", err == nil)
	if err != nil {
		s.logger.Warn(ctx, "initial load failed, serving an empty ranking", logger.Error(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelRun = cancel
	s.refresher = refresh.NewRefresher(
		refresh.LoaderFunc(s.refresh),
		s.refreshInterval,
		refresh.WithLogger(s.logger.Named("refresher")),
	)
	go s.refresher.Run(runCtx)

	s.starting = false
	s.started = true
	s.logger.Info(ctx, "userboard service started", logger.Int("users", s.store.Count(ctx)))
	return nil
}

// Stop gracefully shuts down the service. The source is left open; its
// owner closes it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping userboard service...")

	s.cancelRun()
	if err := s.refresher.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "refresher did not stop cleanly", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "userboard service stopped")
}

// Refresh re-fetches users and publishes a new ranking.
func (s *Service) Refresh(ctx context.Context) error {
	err := s.refresh(ctx)
	metrics.RecordRefresh("manual", err == nil)
	return err
}

func (s *Service) refresh(ctx context.Context) error {
	if s.src == nil {
		return ErrNoSource
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	users, err := s.src.Fetch(ctx)
	if err == nil {
		var snap repository.Snapshot
		snap, err = s.store.Replace(ctx, users)
		if err == nil {
			s.logger.Info(ctx, "published ranking",
				logger.String("version", snap.Version),
				logger.Int("users", snap.Size),
				logger.Int("nanScored", snap.NaNCount),
			)
		}
	}
	if err != nil {
		err = fmt.Errorf("refresh from %s source: %w", s.src.Name(), err)
	}

	s.statMu.Lock()
	s.lastRefresh = s.now()
	s.lastErr = err
	s.statMu.Unlock()

	return err
}

// Users returns one page of the ranking filtered by params.SearchText.
func (s *Service) Users(ctx context.Context, params model.ViewParameters) (model.Page, error) {
	return s.store.Query(ctx, params)
}

// Rank returns the global rank of the user with the given id.
func (s *Service) Rank(ctx context.Context, id string) (repository.Entry, error) {
	return s.store.Rank(ctx, id)
}

// Snapshot describes the currently published ranking.
func (s *Service) Snapshot(ctx context.Context) repository.Snapshot {
	return s.store.Snapshot(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	snap := s.store.Snapshot(ctx)
	stats := map[string]any{
		"started":         s.started,
		"refreshInterval": s.refreshInterval.String(),
		"totalUsers":      snap.Size,
		"nanScoredUsers":  snap.NaNCount,
		"snapshotVersion": snap.Version,
		"weights": map[string]float64{
			"rating":  snap.Weights.Rating,
			"rents":   snap.Weights.Rents,
			"recency": snap.Weights.Recency,
		},
	}
	if s.src != nil {
		stats["source"] = s.src.Name()
	}
	if !snap.TakenAt.IsZero() {
		stats["snapshotTakenAt"] = snap.TakenAt.UTC().Format(time.RFC3339)
	}

	s.statMu.Lock()
	if !s.lastRefresh.IsZero() {
		stats["lastRefresh"] = s.lastRefresh.UTC().Format(time.RFC3339)
	}
	if s.lastErr != nil {
		stats["lastError"] = s.lastErr.Error()
	}
	s.statMu.Unlock()

	return stats
}
