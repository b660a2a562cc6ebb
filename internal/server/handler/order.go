package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/quadscalp/futsim/internal/domain"
)

// OrderService defines the methods the order handler requires from the
// engine.
type OrderService interface {
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error)
	CancelOrder(ctx context.Context, id int64) bool
	Flatten(ctx context.Context, symbol string) []domain.Trade
	PendingOrders() []domain.Order
}

// OrderHandler serves order-related HTTP endpoints.
type OrderHandler struct {
	orders OrderService
	logger *slog.Logger
}

// NewOrderHandler creates an OrderHandler with the given service and logger.
func NewOrderHandler(orders OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// ListOrders returns all pending orders.
// GET /api/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.orders.PendingOrders()
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// PlaceOrder creates a new order from a JSON order request.
// POST /api/orders
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	order, err := h.orders.PlaceOrder(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidOrder):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrUnknownSymbol):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			h.logger.ErrorContext(r.Context(), "handler: place order failed",
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to place order")
		}
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// CancelOrder cancels a pending order by its ID.
// DELETE /api/orders/{id}
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(pathParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	if !h.orders.CancelOrder(r.Context(), id) {
		writeError(w, http.StatusNotFound, "order not found or already resolved")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "cancelled",
		"order_id": id,
	})
}

// flattenResponse wraps the flatten result.
type flattenResponse struct {
	Closed int            `json:"closed"`
	Trades []domain.Trade `json:"trades"`
}

// Flatten closes all open positions, optionally restricted to one symbol.
// POST /api/orders/flatten?symbol=ES
func (h *OrderHandler) Flatten(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")

	trades := h.orders.Flatten(r.Context(), symbol)
	if trades == nil {
		trades = []domain.Trade{}
	}
	writeJSON(w, http.StatusOK, flattenResponse{
		Closed: len(trades),
		Trades: trades,
	})
}
