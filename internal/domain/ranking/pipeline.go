package ranking

import (
	"slices"
	"time"

	"github.com/okian/userboard/internal/domain/model"
	"github.com/okian/userboard/internal/domain/pagination"
	"github.com/okian/userboard/internal/domain/scoring"
)

// Option applies a configuration option to a pipeline run.
type Option func(*runConfig)

type runConfig struct {
	weights scoring.Weights
	now     time.Time
}

// WithWeights overrides the default weight set for the run.
func WithWeights(w scoring.Weights) Option {
	return func(c *runConfig) {
		c.weights = w
	}
}

// WithNow pins the reference instant for recency normalization.
func WithNow(now time.Time) Option {
	return func(c *runConfig) {
		if !now.IsZero() {
			c.now = now
		}
	}
}

// Ranked is a scored and ordered collection ready to be filtered and paged
// any number of times. It is immutable after Prepare returns.
type Ranked struct {
	records []model.ScoredUserRecord
	weights scoring.Weights
	at      time.Time
}

// Prepare scores and ranks records once. Subsequent View calls only filter
// and paginate.
func Prepare(records []model.UserRecord, opts ...Option) *Ranked {
	cfg := runConfig{weights: scoring.DefaultWeights()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.now.IsZero() {
		cfg.now = time.Now()
	}

	calc := scoring.NewCalculator(scoring.WithWeights(cfg.weights))
	return &Ranked{
		records: Rank(calc.ScoreAt(records, cfg.now)),
		weights: cfg.weights,
		at:      cfg.now,
	}
}

// View filters by params.SearchText and returns the requested page.
func (r *Ranked) View(params model.ViewParameters) (model.Page, error) {
	if err := pagination.Validate(params.PageIndex, params.PageSize); err != nil {
		return model.Page{}, err
	}
	w, err := pagination.Paginate(Filter(r.records, params.SearchText), params.PageIndex, params.PageSize)
	if err != nil {
		return model.Page{}, err
	}
	return model.Page{Records: w.Items, TotalCount: w.Total}, nil
}

// Records returns a copy of the full ranked sequence.
func (r *Ranked) Records() []model.ScoredUserRecord { return slices.Clone(r.records) }

// Len returns the number of ranked records.
func (r *Ranked) Len() int { return len(r.records) }

// At returns the reference instant the records were scored against.
func (r *Ranked) At() time.Time { return r.at }

// Weights returns the weight set the records were scored with.
func (r *Ranked) Weights() scoring.Weights { return r.weights }

// Position returns the zero-based position of id in the full ranking.
func (r *Ranked) Position(id string) (int, model.ScoredUserRecord, bool) {
	for i, rec := range r.records {
		if rec.ID == id {
			return i, rec, true
		}
	}
	return -1, model.ScoredUserRecord{}, false
}

// RankAndPaginate runs the full pipeline: normalize, score, rank, filter,
// paginate. It fails fast on an invalid page size or index.
func RankAndPaginate(records []model.UserRecord, params model.ViewParameters, opts ...Option) (model.Page, error) {
	if err := pagination.Validate(params.PageIndex, params.PageSize); err != nil {
		return model.Page{}, err
	}
	return Prepare(records, opts...).View(params)
}
