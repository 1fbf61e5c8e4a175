package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/boardsync/internal/domain/model"
)

// RankDependencies defines the interface for single participant lookups.
type RankDependencies interface {
	Lookup(ctx context.Context, hacker string) (model.ParticipantRecord, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps RankDependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// HandleGetRank handles GET /rank/{hacker} requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	hacker := strings.TrimPrefix(r.URL.Path, "/rank/")
	if hacker == "" || strings.Contains(hacker, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, ErrBadRequest))
		return
	}
	rec, err := h.deps.Lookup(r.Context(), hacker)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toEntry(rec))
}
