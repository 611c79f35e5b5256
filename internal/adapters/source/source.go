// Package source fetches raw user records from upstream systems.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/userboard/internal/config"
	"github.com/okian/userboard/internal/domain/model"
	"github.com/okian/userboard/pkg/logger"
	"github.com/okian/userboard/pkg/metrics"
)

// Source yields the full user collection on every Fetch.
// Record order is preserved because ranking ties keep input order.
type Source interface {
	Fetch(ctx context.Context) ([]model.UserRecord, error)
	Name() string
}

// New builds the Source selected by cfg.SourceKind.
// Callers should close the result when it implements io.Closer.
func New(cfg *config.Config) (Source, error) {
	switch cfg.SourceKind {
	case config.SourceHTTP:
		return NewHTTPSource(cfg.SourceURL,
			WithTimeout(cfg.SourceTimeout()),
			WithRateLimit(cfg.SourceRPS, cfg.SourceBurst),
			WithMaxAttempts(cfg.SourceMaxAttempts),
		), nil
	case config.SourceFile:
		return NewFileSource(cfg.SourcePath), nil
	case config.SourceSQLite:
		src, err := OpenSQLite(cfg.SourcePath)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.SourceKind)
	}
}

// observe records the outcome of one Fetch.
func observe(name string, start time.Time, err error) {
	metrics.RecordSourceFetch(name, err == nil, float64(time.Since(start).Microseconds())/1000)
}

// reportIssues logs the rows that were repaired or dropped while decoding.
func reportIssues(ctx context.Context, log logger.Logger, issues []rowIssue) {
	for _, issue := range issues {
		log.Warn(ctx, "malformed user row", logger.String("issue", issue.String()))
	}
}
