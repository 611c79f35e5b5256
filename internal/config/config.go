// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keys are flat so every field can be overridden by a USERBOARD_ env var.
// - Load layers defaults, an optional YAML file and the environment.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"time"

	"github.com/okian/userboard/internal/domain/scoring"
)

// Source kinds understood by the source factory.
const (
	SourceHTTP   = "http"
	SourceFile   = "file"
	SourceSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DefaultPageSize applies when a request omits page_size.
	DefaultPageSize int `koanf:"default_page_size"`

	// MaxPageSize caps GET /users?page_size.
	MaxPageSize int `koanf:"max_page_size"`

	// Composite score weights.
	RatingWeight  float64 `koanf:"rating_weight"`
	RentsWeight   float64 `koanf:"rents_weight"`
	RecencyWeight float64 `koanf:"recency_weight"`

	// RefreshIntervalMS controls how often users are re-fetched and re-ranked.
	// Zero disables periodic refresh.
	RefreshIntervalMS int `koanf:"refresh_interval_ms"`

	// SourceKind selects where users come from: http, file or sqlite.
	SourceKind string `koanf:"source_kind"`
	// SourceURL is the users endpoint for the http source.
	SourceURL string `koanf:"source_url"`
	// SourcePath is the file or database path for file and sqlite sources.
	SourcePath string `koanf:"source_path"`
	// SourceTimeoutMS bounds a single upstream request.
	SourceTimeoutMS int `koanf:"source_timeout_ms"`
	// SourceRPS and SourceBurst rate limit upstream requests.
	SourceRPS   float64 `koanf:"source_rps"`
	SourceBurst int     `koanf:"source_burst"`
	// SourceMaxAttempts bounds retries of a failed upstream request.
	SourceMaxAttempts int `koanf:"source_max_attempts"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		DefaultPageSize:   5,
		MaxPageSize:       100,
		RatingWeight:      scoring.DefaultRatingWeight,
		RentsWeight:       scoring.DefaultRentsWeight,
		RecencyWeight:     scoring.DefaultRecencyWeight,
		RefreshIntervalMS: 60_000,
		SourceKind:        SourceHTTP,
		SourceURL:         "http://localhost:5000/api/users",
		SourceTimeoutMS:   10_000,
		SourceRPS:         2,
		SourceBurst:       5,
		SourceMaxAttempts: 3,
	}
}

// Weights returns the configured composite score weights.
func (c *Config) Weights() scoring.Weights {
	return scoring.Weights{
		Rating:  c.RatingWeight,
		Rents:   c.RentsWeight,
		Recency: c.RecencyWeight,
	}
}

// RefreshInterval returns RefreshIntervalMS as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMS) * time.Millisecond
}

// SourceTimeout returns SourceTimeoutMS as a duration.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.SourceTimeoutMS) * time.Millisecond
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxPageSize <= 0:
		return fmt.Errorf("%w: max_page_size must be positive", ErrInvalidConfig)
	case c.DefaultPageSize <= 0 || c.DefaultPageSize > c.MaxPageSize:
		return fmt.Errorf("%w: default_page_size must be in [1, max_page_size]", ErrInvalidConfig)
	case c.RefreshIntervalMS < 0:
		return fmt.Errorf("%w: refresh_interval_ms must not be negative", ErrInvalidConfig)
	}

	switch c.SourceKind {
	case SourceHTTP:
		if c.SourceURL == "" {
			return fmt.Errorf("%w: source_url is required for the http source", ErrInvalidConfig)
		}
	case SourceFile, SourceSQLite:
		if c.SourcePath == "" {
			return fmt.Errorf("%w: source_path is required for the %s source", ErrInvalidConfig, c.SourceKind)
		}
	default:
		return fmt.Errorf("%w: unknown source_kind %q", ErrInvalidConfig, c.SourceKind)
	}
	return nil
}
