package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadscalp/futsim/internal/domain"
)

// fakeOrderService scripts the engine surface the order handler talks to.
type fakeOrderService struct {
	placeErr   error
	placed     []domain.OrderRequest
	cancelOK   bool
	cancelled  []int64
	flatTrades []domain.Trade
	pending    []domain.Order
}

func (f *fakeOrderService) PlaceOrder(_ context.Context, req domain.OrderRequest) (domain.Order, error) {
	f.placed = append(f.placed, req)
	if f.placeErr != nil {
		return domain.Order{}, f.placeErr
	}
	return domain.Order{
		ID:     int64(len(f.placed)),
		Symbol: req.Symbol,
		Side:   req.Side,
		Qty:    req.Qty,
		Type:   req.Type,
		Status: domain.OrderStatusFilled,
	}, nil
}

func (f *fakeOrderService) CancelOrder(_ context.Context, id int64) bool {
	f.cancelled = append(f.cancelled, id)
	return f.cancelOK
}

func (f *fakeOrderService) Flatten(_ context.Context, symbol string) []domain.Trade {
	return f.flatTrades
}

func (f *fakeOrderService) PendingOrders() []domain.Order {
	return f.pending
}

func newOrderTestServer(svc *fakeOrderService) *httptest.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewOrderHandler(svc, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("POST /api/orders", h.PlaceOrder)
	mux.HandleFunc("DELETE /api/orders/{id}", h.CancelOrder)
	mux.HandleFunc("POST /api/orders/flatten", h.Flatten)
	return httptest.NewServer(mux)
}

func TestPlaceOrderCreated(t *testing.T) {
	svc := &fakeOrderService{}
	srv := newOrderTestServer(svc)
	defer srv.Close()

	body := `{"symbol":"ES","side":"BUY","qty":2,"order_type":"MKT"}`
	resp, err := http.Post(srv.URL+"/api/orders", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var order domain.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	assert.Equal(t, "ES", order.Symbol)
	assert.Equal(t, domain.OrderSideBuy, order.Side)
	assert.Equal(t, 2, order.Qty)
	assert.Equal(t, domain.OrderStatusFilled, order.Status)

	require.Len(t, svc.placed, 1)
	assert.Equal(t, domain.OrderTypeMarket, svc.placed[0].Type)
}

func TestPlaceOrderErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid order", fmt.Errorf("qty 0: %w", domain.ErrInvalidOrder), http.StatusBadRequest},
		{"unknown symbol", fmt.Errorf("symbol GC: %w", domain.ErrUnknownSymbol), http.StatusNotFound},
		{"internal", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeOrderService{placeErr: tc.err}
			srv := newOrderTestServer(svc)
			defer srv.Close()

			body := `{"symbol":"ES","side":"BUY","qty":1,"order_type":"MKT"}`
			resp, err := http.Post(srv.URL+"/api/orders", "application/json", strings.NewReader(body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestPlaceOrderMalformedBody(t *testing.T) {
	svc := &fakeOrderService{}
	srv := newOrderTestServer(svc)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/orders", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, svc.placed)
}

func TestCancelOrder(t *testing.T) {
	svc := &fakeOrderService{cancelOK: true}
	srv := newOrderTestServer(svc)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/orders/42", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []int64{42}, svc.cancelled)

	// Unknown id maps to 404, malformed id to 400.
	svc.cancelOK = false
	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/api/orders/7", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/api/orders/abc", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFlattenReportsClosedTrades(t *testing.T) {
	svc := &fakeOrderService{
		flatTrades: []domain.Trade{
			{ID: 1, Symbol: "ES", Side: domain.PositionSideLong, Qty: 1, PnL: 50.0, ExitReason: domain.ExitReasonFlatten},
		},
	}
	srv := newOrderTestServer(svc)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/orders/flatten?symbol=ES", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Closed int            `json:"closed"`
		Trades []domain.Trade `json:"trades"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 1, out.Closed)
	require.Len(t, out.Trades, 1)
	assert.Equal(t, domain.ExitReasonFlatten, out.Trades[0].ExitReason)
}

func TestFlattenEmptyBook(t *testing.T) {
	svc := &fakeOrderService{}
	srv := newOrderTestServer(svc)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/orders/flatten", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Closed int            `json:"closed"`
		Trades []domain.Trade `json:"trades"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Zero(t, out.Closed)
	assert.NotNil(t, out.Trades)
}

func TestListOrdersEmptyIsJSONArray(t *testing.T) {
	svc := &fakeOrderService{}
	srv := newOrderTestServer(svc)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/orders")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(raw)))
}
