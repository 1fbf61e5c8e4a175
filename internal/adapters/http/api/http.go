// Package api serves the read-only status endpoints next to the exporter.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/boardsync/internal/domain/model"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	StatsProvider

	// Read operations expose the last exported batch.
	TopN(ctx context.Context, n int) (model.ExportBatch, error)
	Lookup(ctx context.Context, hacker string) (model.ParticipantRecord, error)
}

// Entry is the JSON shape of one participant row.
type Entry struct {
	Rank      *int    `json:"rank"`
	Hacker    string  `json:"hacker"`
	Score     float64 `json:"score"`
	TimeTaken float64 `json:"time_taken"`
	Country   string  `json:"country,omitempty"`
	School    string  `json:"school,omitempty"`
	Avatar    string  `json:"avatar,omitempty"`
}

// toEntry converts a record; an absent rank is rendered as null.
func toEntry(rec model.ParticipantRecord) Entry {
	e := Entry{
		Hacker:    rec.Hacker,
		Score:     rec.Score,
		TimeTaken: rec.TimeTaken,
		Country:   rec.Country,
		School:    rec.School,
		Avatar:    rec.Avatar,
	}
	if rec.HasRank {
		rank := rec.Rank
		e.Rank = &rank
	}
	return e
}

// Server wires HTTP routes for the status API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers. maxLimit bounds the
// limit accepted by /leaderboard.
func NewServer(deps Dependencies, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		rankHandler:        NewRankHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
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

// wrap annotates err with the handler op.
func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
