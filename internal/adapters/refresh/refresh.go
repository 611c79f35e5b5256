// Package refresh periodically re-fetches and re-ranks the user collection.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/userboard/pkg/logger"
	"github.com/okian/userboard/pkg/metrics"
)

// Loader performs one fetch-and-publish cycle.
type Loader interface {
	Refresh(ctx context.Context) error
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) error

// Refresh implements Loader.
func (f LoaderFunc) Refresh(ctx context.Context) error { return f(ctx) }

// Refresher calls a Loader on a fixed interval.
type Refresher struct {
	loader   Loader
	interval time.Duration
	name     string

	shutdown     chan struct{}
	done         chan struct{}
	shutdownOnce sync.Once

	logger logger.Logger
}

// NewRefresher creates a refresher. A non-positive interval makes Run return
// immediately.
func NewRefresher(loader Loader, interval time.Duration, opts ...Option) *Refresher {
	r := &Refresher{
		loader:   loader,
		interval: interval,
		name:     "refresher",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get().Named(r.name)
	}
	return r
}

// Run blocks, refreshing every interval until ctx is cancelled or Shutdown
// is called. A failed refresh is logged and the loop keeps going.
func (r *Refresher) Run(ctx context.Context) {
	defer close(r.done)

	if r.interval <= 0 {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.shutdown:
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Refresher) tick(ctx context.Context) {
	start := time.Now()
	err := r.loader.Refresh(ctx)
	metrics.RecordRefresh("periodic", err == nil)
	if err != nil {
		r.logger.Error(ctx, "periodic refresh failed", logger.Error(err))
		return
	}
	r.logger.Debug(ctx, "periodic refresh done", logger.Duration("took", time.Since(start)))
}

// Shutdown stops the loop and waits for it to exit or ctx to expire.
// It is safe to call more than once.
func (r *Refresher) Shutdown(ctx context.Context) error {
	r.shutdownOnce.Do(func() { close(r.shutdown) })

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		r.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
