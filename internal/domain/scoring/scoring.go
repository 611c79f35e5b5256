// Package scoring computes composite scores for user records.
package scoring

import (
	"time"

	"github.com/okian/userboard/internal/domain/model"
)

// Default weight set.
const (
	DefaultRatingWeight  = 0.5
	DefaultRentsWeight   = 0.3
	DefaultRecencyWeight = 0.2
)

// Weights are the coefficients of the composite score. They are not required
// to sum to 1.
type Weights struct {
	Rating  float64 `json:"rating_weight" koanf:"rating_weight"`
	Rents   float64 `json:"rents_weight" koanf:"rents_weight"`
	Recency float64 `json:"recency_weight" koanf:"recency_weight"`
}

// DefaultWeights returns {rating: 0.5, rents: 0.3, recency: 0.2}.
func DefaultWeights() Weights {
	return Weights{
		Rating:  DefaultRatingWeight,
		Rents:   DefaultRentsWeight,
		Recency: DefaultRecencyWeight,
	}
}

// Combine returns the weighted sum of c.
func (w Weights) Combine(c Components) float64 {
	return w.Rating*c.Rating + w.Rents*c.Rents + w.Recency*c.Recency
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithWeights overrides the default weight set.
func WithWeights(w Weights) Option {
	return func(c *Calculator) {
		c.weights = w
	}
}

// WithClock sets the source of the reference instant.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

// Calculator scores whole collections. It holds no per-run state and is safe
// for concurrent use.
type Calculator struct {
	weights Weights
	now     func() time.Time
}

// NewCalculator creates a Calculator with default weights and the wall clock.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		weights: DefaultWeights(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Weights returns the weight set in use.
func (c *Calculator) Weights() Weights { return c.weights }

// Score scores records against a single instant read from the clock.
func (c *Calculator) Score(records []model.UserRecord) []model.ScoredUserRecord {
	return c.ScoreAt(records, c.now())
}

// ScoreAt scores records against now. The result is a new slice in input
// order; records is not modified.
func (c *Calculator) ScoreAt(records []model.UserRecord, now time.Time) []model.ScoredUserRecord {
	n := NewNormalizer(records, now)
	out := make([]model.ScoredUserRecord, len(records))
	for i, rec := range records {
		out[i] = model.ScoredUserRecord{
			UserRecord:     rec,
			CompositeScore: c.weights.Combine(n.Normalize(rec)),
		}
	}
	return out
}
