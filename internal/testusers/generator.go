// Package testusers generates synthetic user collections for seeding
// sources and checks a running server against the local ranking.
package testusers

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/userboard/internal/domain/model"
)

// Generation ranges.
const (
	ratingSteps    = 50 // ratings are multiples of 0.1 in [0, 5]
	maxRents       = 500
	maxIdleSeconds = 2 * 365 * 24 * 3600 // two years
)

// Config controls Generate.
type Config struct {
	Count int
	// MalformedRatio is the share of users given an unparseable
	// recentlyActive value.
	MalformedRatio float64
	// Seed makes ratings, rents and timestamps reproducible. IDs are always
	// random UUIDs.
	Seed uint64
	Now  time.Time
}

// Generate creates cfg.Count users with unique ids.
func Generate(cfg Config) []model.UserRecord {
	if cfg.Count <= 0 {
		return []model.UserRecord{}
	}
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	users := make([]model.UserRecord, cfg.Count)
	for i := range users {
		active := strconv.FormatInt(now.Unix()-rng.Int64N(maxIdleSeconds), 10)
		if rng.Float64() < cfg.MalformedRatio {
			active = "unknown"
		}
		users[i] = model.UserRecord{
			ID:                        uuid.NewString(),
			TotalAverageWeightRatings: float64(rng.IntN(ratingSteps+1)) / 10,
			NumberOfRents:             rng.IntN(maxRents + 1),
			RecentlyActive:            active,
		}
	}
	return users
}
