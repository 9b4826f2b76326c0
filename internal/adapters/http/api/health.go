// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// HandleHealth handles GET /healthz requests.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
