package handler

import (
	"log/slog"
	"net/http"

	"github.com/quadscalp/futsim/internal/domain"
)

// PositionService is the position read surface the handler requires.
type PositionService interface {
	Positions() []domain.PositionView
}

// PositionHandler serves the open-positions endpoint.
type PositionHandler struct {
	positions PositionService
	logger    *slog.Logger
}

// NewPositionHandler creates a PositionHandler with the given service.
func NewPositionHandler(positions PositionService, logger *slog.Logger) *PositionHandler {
	return &PositionHandler{positions: positions, logger: logger}
}

// ListPositions returns all open positions marked to the live price.
// GET /api/positions
func (h *PositionHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	views := h.positions.Positions()
	if views == nil {
		views = []domain.PositionView{}
	}
	writeJSON(w, http.StatusOK, views)
}
