package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/userboard/internal/domain/model"
	"github.com/okian/userboard/pkg/logger"
	"github.com/okian/userboard/pkg/metrics"
)

// Default HTTP source settings.
const (
	defaultTimeout     = 10 * time.Second
	defaultRPS         = 2.0
	defaultBurst       = 5
	defaultMaxAttempts = 3
	defaultBaseBackoff = 250 * time.Millisecond
	maxBodyBytes       = 64 << 20
)

// HTTPOption applies a configuration option to the HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if c != nil {
			s.client = c
		}
	}
}

// WithTimeout bounds each upstream request.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRateLimit limits upstream requests to rps with the given burst.
// Retries count against the limit.
func WithRateLimit(rps float64, burst int) HTTPOption {
	return func(s *HTTPSource) {
		if rps > 0 && burst > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithMaxAttempts bounds how often a failing request is tried.
func WithMaxAttempts(n int) HTTPOption {
	return func(s *HTTPSource) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithBaseBackoff sets the delay before the first retry. It doubles per retry.
func WithBaseBackoff(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.baseBackoff = d
		}
	}
}

// WithHTTPLogger sets a custom logger for the source.
func WithHTTPLogger(l logger.Logger) HTTPOption {
	return func(s *HTTPSource) {
		if l != nil {
			s.logger = l
		}
	}
}

// HTTPSource fetches users from a JSON endpoint such as GET /api/users.
type HTTPSource struct {
	url         string
	client      *http.Client
	timeout     time.Duration
	limiter     *rate.Limiter
	maxAttempts int
	baseBackoff time.Duration
	logger      logger.Logger
}

// NewHTTPSource creates a source reading from url.
func NewHTTPSource(url string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url:         url,
		client:      &http.Client{},
		timeout:     defaultTimeout,
		limiter:     rate.NewLimiter(rate.Limit(defaultRPS), defaultBurst),
		maxAttempts: defaultMaxAttempts,
		baseBackoff: defaultBaseBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("source.http")
	}
	return s
}

// Name implements Source.
func (s *HTTPSource) Name() string { return "http" }

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) (users []model.UserRecord, err error) {
	start := time.Now()
	defer func() { observe(s.Name(), start, err) }()

	body, err := s.getWithRetry(ctx)
	if err != nil {
		return nil, err
	}
	users, issues, err := decodeJSON(body)
	if err != nil {
		return nil, err
	}
	reportIssues(ctx, s.logger, issues)
	return users, nil
}

// getWithRetry retries transport errors, 429 and 5xx responses with
// exponential backoff. Other statuses fail immediately.
func (s *HTTPSource) getWithRetry(ctx context.Context) ([]byte, error) {
	backoff := s.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if attempt > 1 {
			metrics.RecordSourceRetry()
			s.logger.Warn(ctx, "retrying users request",
				logger.Int("attempt", attempt),
				logger.Duration("backoff", backoff),
				logger.Error(lastErr),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", ErrFetch, ctx.Err())
			}
			backoff *= 2
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", ErrFetch, err)
		}

		body, retry, err := s.get(ctx)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: giving up after %d attempts: %w", ErrFetch, s.maxAttempts, lastErr)
}

// get performs one request and reports whether a failure is retryable.
func (s *HTTPSource) get(ctx context.Context) (body []byte, retry bool, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		retry = resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
		return nil, retry, fmt.Errorf("%w: upstream status %d", ErrFetch, resp.StatusCode)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, fmt.Errorf("%w: read body: %w", ErrFetch, err)
	}
	return body, false, nil
}
