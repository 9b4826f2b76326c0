// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/offsuit/analyzer/internal/domain/identity"
	"github.com/offsuit/analyzer/internal/domain/leaderboard"
	"github.com/offsuit/analyzer/internal/domain/model"
	"github.com/offsuit/analyzer/internal/domain/skill"
	"github.com/offsuit/analyzer/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Read operations expose derived league standings.
	Leaderboard(ctx context.Context, kind leaderboard.Kind) (leaderboard.Table, error)
	SkillRatings(ctx context.Context) ([]skill.PlayerRating, error)

	// Name tooling.
	Warnings(ctx context.Context) ([]string, error)
	ScanNames(ctx context.Context) ([]string, error)
	NameClashes(ctx context.Context) ([]model.NameClash, error)
	ResolveNames(ctx context.Context) (identity.Result, error)

	// Administration.
	Refresh(ctx context.Context) error
	AddRound(ctx context.Context, round model.Round) (model.Round, error)
	GetStats(ctx context.Context) map[string]interface{}
}

// Server wires HTTP routes for the business API.
type Server struct {
	leaderboardHandler *LeaderboardHandler
	nameToolsHandler   *NameToolsHandler
	adminHandler       *AdminHandler
	statsHandler       *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		leaderboardHandler: NewLeaderboardHandler(deps),
		nameToolsHandler:   NewNameToolsHandler(deps),
		adminHandler:       NewAdminHandler(deps),
		statsHandler:       NewStatsHandler(deps),
	}
}

// Router builds the chi router with every route attached.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)

	r.Get("/healthz", HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	r.Route("/leaderboard", func(r chi.Router) {
		r.Get("/skill", s.leaderboardHandler.HandleGetSkill)
		r.Get("/{kind}", s.leaderboardHandler.HandleGetLeaderboard)
	})

	r.Route("/nametools", func(r chi.Router) {
		r.Get("/warnings", s.nameToolsHandler.HandleGetWarnings)
		r.Get("/clashes", s.nameToolsHandler.HandleGetClashes)
		r.Post("/scan", s.nameToolsHandler.HandleScan)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/refresh", s.adminHandler.HandleRefresh)
		r.Post("/rounds", s.adminHandler.HandlePostRound)
		r.Post("/resolve-names", s.adminHandler.HandleResolveNames)
	})

	return r
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
