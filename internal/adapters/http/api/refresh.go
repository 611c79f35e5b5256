package api

import (
	"context"
	"net/http"

	"github.com/okian/userboard/internal/adapters/repository"
)

// RefreshDependencies defines the interface for on-demand refreshes.
type RefreshDependencies interface {
	Refresh(ctx context.Context) error
	Snapshot(ctx context.Context) repository.Snapshot
}

// RefreshHandler handles refresh requests.
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

// HandleRefresh handles POST /refresh requests.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.refresh"

	if err := h.deps.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "upstream_error", WrapKind(op, ErrUpstream, err))
		return
	}
	writeJSON(w, http.StatusAccepted, toSnapshotResponse(h.deps.Snapshot(r.Context())))
}
