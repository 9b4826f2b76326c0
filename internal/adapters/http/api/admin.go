// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/offsuit/analyzer/internal/domain/model"
)

// AdminHandler handles administrative endpoints.
type AdminHandler struct {
	deps Dependencies
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps Dependencies) *AdminHandler {
	return &AdminHandler{deps: deps}
}

type statusResponse struct {
	Status string `json:"status"`
}

// HandleRefresh handles POST /admin/refresh requests.
func (h *AdminHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "refresh_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "refreshed"})
}

// roundRequest mirrors the POST /admin/rounds body.
type roundRequest struct {
	RoundID   string `json:"round_id"`
	BarName   string `json:"bar_name"`
	RoundDate string `json:"round_date"`
	Players   []struct {
		Name   string `json:"name"`
		Points int    `json:"points"`
	} `json:"players"`
}

func (rr roundRequest) validate() error {
	switch {
	case strings.TrimSpace(rr.BarName) == "":
		return errors.New("missing bar_name")
	case len(rr.Players) == 0:
		return errors.New("missing players")
	}
	return nil
}

type roundResponse struct {
	RoundID string `json:"round_id"`
	BarName string `json:"bar_name"`
	Players int    `json:"players"`
}

// HandlePostRound handles POST /admin/rounds requests for manual round
// entry.
func (h *AdminHandler) HandlePostRound(w http.ResponseWriter, r *http.Request) {
	var req roundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	round := model.Round{
		RoundID:   req.RoundID,
		BarName:   req.BarName,
		RoundDate: req.RoundDate,
	}
	for _, p := range req.Players {
		round.Players = append(round.Players, model.PlayerScore{
			Name:   p.Name,
			Points: p.Points,
		})
	}

	stored, err := h.deps.AddRound(r.Context(), round)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_round", err)
		return
	}
	writeJSON(w, http.StatusCreated, roundResponse{
		RoundID: stored.RoundID,
		BarName: stored.BarName,
		Players: len(stored.Players),
	})
}

type resolveResponse struct {
	Detected  []clashEntry `json:"detected"`
	Retracted []clashEntry `json:"retracted"`
}

// HandleResolveNames handles POST /admin/resolve-names requests.
func (h *AdminHandler) HandleResolveNames(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.ResolveNames(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "resolve_failed", err)
		return
	}

	resp := resolveResponse{Detected: []clashEntry{}, Retracted: []clashEntry{}}
	for _, c := range res.Detected {
		resp.Detected = append(resp.Detected, clashEntry{
			Name: c.Name, Kind: string(c.Kind), Description: c.Description,
		})
	}
	for _, c := range res.Retracted {
		resp.Retracted = append(resp.Retracted, clashEntry{
			Name: c.Name, Kind: string(c.Kind), Description: c.Description,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
