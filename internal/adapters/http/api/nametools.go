// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// NameToolsHandler handles name quality endpoints.
type NameToolsHandler struct {
	deps Dependencies
}

// NewNameToolsHandler creates a new name tools handler.
func NewNameToolsHandler(deps Dependencies) *NameToolsHandler {
	return &NameToolsHandler{deps: deps}
}

type warningsResponse struct {
	Warnings []string `json:"warnings"`
}

// HandleGetWarnings handles GET /nametools/warnings requests.
func (h *NameToolsHandler) HandleGetWarnings(w http.ResponseWriter, r *http.Request) {
	warnings, err := h.deps.Warnings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, warningsResponse{Warnings: warnings})
}

// HandleScan handles POST /nametools/scan requests. The scan re-derives
// warnings from the stored history and returns the fresh set.
func (h *NameToolsHandler) HandleScan(w http.ResponseWriter, r *http.Request) {
	warnings, err := h.deps.ScanNames(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, warningsResponse{Warnings: warnings})
}

// clashEntry mirrors the read shape of one outstanding clash record.
type clashEntry struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// HandleGetClashes handles GET /nametools/clashes requests.
func (h *NameToolsHandler) HandleGetClashes(w http.ResponseWriter, r *http.Request) {
	clashes, err := h.deps.NameClashes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	entries := make([]clashEntry, 0, len(clashes))
	for _, c := range clashes {
		entries = append(entries, clashEntry{
			Name:        c.Name,
			Kind:        string(c.Kind),
			Description: c.Description,
		})
	}
	writeJSON(w, http.StatusOK, entries)
}
