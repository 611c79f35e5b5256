// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/userboard/internal/adapters/repository"
	"github.com/okian/userboard/internal/domain/model"
)

// Default paging limits when no options are given.
const (
	defaultPageSize = 5
	defaultMaxSize  = 100
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Users returns one page of the ranking.
	Users(ctx context.Context, params model.ViewParameters) (model.Page, error)
	// Rank returns the global rank of a user.
	Rank(ctx context.Context, id string) (repository.Entry, error)
	// Refresh re-fetches users and publishes a new ranking.
	Refresh(ctx context.Context) error
	// Snapshot describes the published ranking.
	Snapshot(ctx context.Context) repository.Snapshot
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithDefaultPageSize sets the page size used when a request omits page_size.
func WithDefaultPageSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.defaultPageSize = n
		}
	}
}

// WithMaxPageSize caps page_size.
func WithMaxPageSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxPageSize = n
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	defaultPageSize int
	maxPageSize     int

	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	usersHandler   *UsersHandler
	rankHandler    *RankHandler
	refreshHandler *RefreshHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		defaultPageSize: defaultPageSize,
		maxPageSize:     defaultMaxSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultPageSize > s.maxPageSize {
		s.defaultPageSize = s.maxPageSize
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.usersHandler = NewUsersHandler(deps, s.defaultPageSize, s.maxPageSize)
	s.rankHandler = NewRankHandler(deps)
	s.refreshHandler = NewRefreshHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /users", MetricsMiddleware(s.usersHandler.HandleGetUsers, "users"))
	mux.HandleFunc("GET /users/{id}/rank", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("POST /refresh", MetricsMiddleware(s.refreshHandler.HandleRefresh, "refresh"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
