package handler

import (
	"log/slog"
	"net/http"

	"github.com/quadscalp/futsim/internal/domain"
)

const (
	defaultTradeLimit = 50
	maxTradeLimit     = 500
)

// TradeService is the trade-log read surface the handler requires.
type TradeService interface {
	RecentTrades(limit int) []domain.Trade
}

// TradeHandler serves the closed-trades endpoint.
type TradeHandler struct {
	trades TradeService
	logger *slog.Logger
}

// NewTradeHandler creates a TradeHandler with the given service.
func NewTradeHandler(trades TradeService, logger *slog.Logger) *TradeHandler {
	return &TradeHandler{trades: trades, logger: logger}
}

// ListTrades returns recent closed trades, most recent first.
// GET /api/trades?limit=50
func (h *TradeHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultTradeLimit, maxTradeLimit)

	trades := h.trades.RecentTrades(limit)
	if trades == nil {
		trades = []domain.Trade{}
	}
	writeJSON(w, http.StatusOK, trades)
}
