package repository

import (
	"time"

	"github.com/okian/userboard/internal/domain/scoring"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithWeights sets the weights used by every Replace.
func WithWeights(w scoring.Weights) Option {
	return func(s *MemoryStore) {
		s.weights = w
	}
}

// WithClock sets the source of the reference instant for Replace.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}
