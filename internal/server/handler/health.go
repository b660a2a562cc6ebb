// Package handler serves the simulator's REST endpoints. Each handler
// depends on a narrow service interface satisfied by the engine.
package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	mode    string
	version string
	logger  *slog.Logger
}

// NewHealthHandler creates a HealthHandler reporting the given mode and
// version strings.
func NewHealthHandler(mode, version string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{mode: mode, version: version, logger: logger}
}

// HealthCheck responds with a simple JSON status indicating the server is alive.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"mode":      h.mode,
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
