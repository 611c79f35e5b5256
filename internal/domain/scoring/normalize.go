package scoring

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/userboard/internal/domain/model"
)

// Normalization reference constants.
const (
	maxRating      = 5.0
	secondsPerYear = 365 * 24 * 3600
)

// Components holds the normalized signals for one record.
type Components struct {
	Rating  float64
	Rents   float64
	Recency float64
}

// Normalizer carries the references shared by every record of one run:
// the collection-wide rent maximum and the reference instant.
type Normalizer struct {
	maxRents int
	now      int64
}

// NewNormalizer scans records once for the rent maximum and pins now.
func NewNormalizer(records []model.UserRecord, now time.Time) Normalizer {
	return Normalizer{
		maxRents: MaxRents(records),
		now:      now.Unix(),
	}
}

// MaxRents returns the largest NumberOfRents in records, or 0 when empty.
func MaxRents(records []model.UserRecord) int {
	m := 0
	for _, r := range records {
		if r.NumberOfRents > m {
			m = r.NumberOfRents
		}
	}
	return m
}

// Normalize maps a record's raw metrics onto the comparable scale.
func (n Normalizer) Normalize(rec model.UserRecord) Components {
	return Components{
		Rating:  NormalizeRating(rec.TotalAverageWeightRatings),
		Rents:   NormalizeRents(rec.NumberOfRents, n.maxRents),
		Recency: NormalizeRecency(rec.RecentlyActive, n.now),
	}
}

// NormalizeRating scales a 0-5 rating to 0-1. Out of range input is not clamped.
func NormalizeRating(rating float64) float64 {
	return rating / maxRating
}

// NormalizeRents scales rents against the collection maximum.
// A zero maximum yields 0 for every record.
func NormalizeRents(rents, maxRents int) float64 {
	if maxRents == 0 {
		return 0
	}
	return float64(rents) / float64(maxRents)
}

// NormalizeRecency returns 1 for activity at now and decreases by 1 per year
// of inactivity. The result is unbounded in both directions; an unparseable
// timestamp yields NaN. The difference is taken in float64 so timestamps
// near the int64 limits cannot wrap.
func NormalizeRecency(recentlyActive string, now int64) float64 {
	ts, err := ParseEpoch(recentlyActive)
	if err != nil {
		return math.NaN()
	}
	return 1 - (float64(now)-float64(ts))/secondsPerYear
}

// ParseEpoch parses an epoch-seconds string. Surrounding whitespace is ignored.
func ParseEpoch(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
