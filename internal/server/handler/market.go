package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/quadscalp/futsim/internal/domain"
)

const (
	defaultBarCount = 500
	maxBarCount     = 2000
)

// MarketService is the market read surface the handlers require.
type MarketService interface {
	Market(symbol string) (domain.SymbolSpec, float64, domain.DepthSnapshot, error)
	BarHistory(symbol string, count int) ([]domain.Bar, error)
}

// MarketHandler serves instrument and bar-history endpoints.
type MarketHandler struct {
	market MarketService
	logger *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given service.
func NewMarketHandler(market MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{market: market, logger: logger}
}

// marketResponse is the instrument view returned by GetMarket.
type marketResponse struct {
	Symbol     string               `json:"symbol"`
	Price      float64              `json:"price"`
	TickSize   float64              `json:"tick_size"`
	PointValue float64              `json:"point_value"`
	Depth      domain.DepthSnapshot `json:"dom"`
}

// GetMarket returns the spec, current price, and a fresh depth snapshot for
// one instrument.
// GET /api/market/{symbol}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(pathParam(r, "symbol"))

	spec, price, depth, err := h.market.Market(symbol)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownSymbol) {
			writeError(w, http.StatusNotFound, "symbol "+symbol+" not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get market failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to read market")
		return
	}

	writeJSON(w, http.StatusOK, marketResponse{
		Symbol:     symbol,
		Price:      price,
		TickSize:   spec.TickSize,
		PointValue: spec.PointValue,
		Depth:      depth,
	})
}

// GetBars returns sealed bar history for one instrument, oldest first.
// GET /api/bars/{symbol}?count=500
func (h *MarketHandler) GetBars(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(pathParam(r, "symbol"))
	count := queryInt(r, "count", defaultBarCount, maxBarCount)

	bars, err := h.market.BarHistory(symbol, count)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownSymbol) {
			writeError(w, http.StatusNotFound, "symbol "+symbol+" not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get bars failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to read bars")
		return
	}

	if bars == nil {
		bars = []domain.Bar{}
	}
	writeJSON(w, http.StatusOK, bars)
}
