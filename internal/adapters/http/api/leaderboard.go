// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/offsuit/analyzer/internal/domain/leaderboard"
)

// knownKinds guards the path parameter before it reaches the service.
var knownKinds = map[leaderboard.Kind]struct{}{
	leaderboard.KindPercentile: {},
	leaderboard.KindFirstPlace: {},
	leaderboard.KindTopThree:   {},
	leaderboard.KindITM:        {},
	leaderboard.KindOutlasted:  {},
	leaderboard.KindROI:        {},
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps Dependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps Dependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// leaderboardResponse mirrors the read shape of one standings table.
type leaderboardResponse struct {
	Kind    string             `json:"kind"`
	Entries []leaderboardEntry `json:"entries"`
	Message string             `json:"message,omitempty"`
}

type leaderboardEntry struct {
	Player       string  `json:"player"`
	Value        float64 `json:"value"`
	Display      string  `json:"display"`
	Count        int     `json:"count,omitempty"`
	RoundsPlayed int     `json:"rounds_played"`
}

// HandleGetLeaderboard handles GET /leaderboard/{kind} requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	kind := leaderboard.Kind(chi.URLParam(r, "kind"))
	if _, ok := knownKinds[kind]; !ok {
		writeError(w, http.StatusNotFound, "unknown_kind",
			fmt.Errorf("%w: %s", ErrBadRequest, kind))
		return
	}

	table, err := h.deps.Leaderboard(r.Context(), kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	resp := leaderboardResponse{Kind: string(table.Kind), Message: table.Message}
	resp.Entries = make([]leaderboardEntry, 0, len(table.Entries))
	for _, e := range table.Entries {
		resp.Entries = append(resp.Entries, leaderboardEntry{
			Player:       e.Player,
			Value:        e.Value,
			Display:      e.Display,
			Count:        e.Count,
			RoundsPlayed: e.RoundsPlayed,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// skillEntry mirrors the read shape of one player rating.
type skillEntry struct {
	Player       string  `json:"player"`
	Mu           float64 `json:"mu"`
	Sigma        float64 `json:"sigma"`
	Conservative float64 `json:"conservative"`
}

// HandleGetSkill handles GET /leaderboard/skill requests.
func (h *LeaderboardHandler) HandleGetSkill(w http.ResponseWriter, r *http.Request) {
	ratings, err := h.deps.SkillRatings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	entries := make([]skillEntry, 0, len(ratings))
	for _, pr := range ratings {
		entries = append(entries, skillEntry{
			Player:       pr.Player,
			Mu:           pr.Rating.Mu,
			Sigma:        pr.Rating.Sigma,
			Conservative: pr.Rating.Conservative(),
		})
	}
	writeJSON(w, http.StatusOK, entries)
}
