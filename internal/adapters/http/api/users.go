package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/userboard/internal/domain/model"
	"github.com/okian/userboard/internal/domain/pagination"
	"github.com/okian/userboard/pkg/metrics"
)

// UsersDependencies defines the interface for page queries.
type UsersDependencies interface {
	Users(ctx context.Context, params model.ViewParameters) (model.Page, error)
}

// UsersHandler handles ranked user page requests.
type UsersHandler struct {
	deps            UsersDependencies
	defaultPageSize int
	maxPageSize     int
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(deps UsersDependencies, defaultPageSize, maxPageSize int) *UsersHandler {
	return &UsersHandler{
		deps:            deps,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// HandleGetUsers handles GET /users?search=&page=&page_size= requests.
func (h *UsersHandler) HandleGetUsers(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_users"

	params, code, err := h.parseParams(r)
	if err != nil {
		metrics.RecordInvalidQuery(code)
		writeError(w, http.StatusBadRequest, "invalid_"+code, WrapKind(op, ErrBadRequest, err))
		return
	}

	page, err := h.deps.Users(r.Context(), params)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidPageSize) || errors.Is(err, pagination.ErrInvalidPageIndex) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	writeJSON(w, http.StatusOK, NewPageResponse(page, params.PageIndex, params.PageSize))
}

// parseParams reads view parameters from the query string. On failure it
// returns the offending parameter name.
func (h *UsersHandler) parseParams(r *http.Request) (model.ViewParameters, string, error) {
	q := r.URL.Query()
	params := model.ViewParameters{
		SearchText: q.Get("search"),
		PageSize:   h.defaultPageSize,
	}

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return params, "page", fmt.Errorf("page must be an integer: %q", raw)
		}
		if n < 0 {
			return params, "page", fmt.Errorf("page must not be negative: %d", n)
		}
		params.PageIndex = n
	}

	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return params, "page_size", fmt.Errorf("page_size must be an integer: %q", raw)
		}
		if n <= 0 || n > h.maxPageSize {
			return params, "page_size", fmt.Errorf("page_size must be in [1, %d]: %d", h.maxPageSize, n)
		}
		params.PageSize = n
	}

	return params, "", nil
}
