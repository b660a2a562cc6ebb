package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadscalp/futsim/internal/domain"
	"github.com/quadscalp/futsim/internal/ledger"
	"github.com/quadscalp/futsim/internal/market"
	"github.com/quadscalp/futsim/internal/stream"
)

type recorder struct {
	id     string
	events []domain.Event
}

func (r *recorder) ID() string { return r.id }

func (r *recorder) Send(event domain.Event) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) kinds() []domain.EventType {
	out := make([]domain.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind()
	}
	return out
}

func testSpecs() []domain.SymbolSpec {
	return []domain.SymbolSpec{
		{Symbol: "ES", TickSize: 0.25, PointValue: 50.0, Volatility: 0.0003, InitialPrice: 5890.00},
		{Symbol: "CL", TickSize: 0.01, PointValue: 1000.0, Volatility: 0.0005, InitialPrice: 71.50},
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	specs := testSpecs()
	rng := rand.New(rand.NewPCG(7, 11))
	mkt := market.NewPriceProcess(specs, "ES", rng, logger)
	bars := market.NewBarAggregator(specs, 5*time.Second, 100, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	led := ledger.New(mkt, ledger.Config{StartingBalance: 50000.0, MarginPerContract: 6930.0})
	broadcaster := stream.NewBroadcaster(logger)

	return New(
		Config{TickInterval: time.Second, DepthLevels: 10, Demo: true},
		mkt, bars, led, broadcaster,
		nil, nil, nil,
		logger,
	)
}

func TestSubscriberReceivesInitSnapshot(t *testing.T) {
	e := newTestEngine(t)

	r := &recorder{id: "client"}
	e.Broadcaster().Subscribe(r)

	require.Len(t, r.events, 1)
	init, ok := r.events[0].(domain.InitEvent)
	require.True(t, ok)

	assert.True(t, init.Demo)
	require.Contains(t, init.Symbols, "ES")
	require.Contains(t, init.Symbols, "CL")
	assert.Equal(t, 5890.00, init.Symbols["ES"].Price)
	assert.Equal(t, 0.25, init.Symbols["ES"].TickSize)
	assert.Equal(t, 50000.0, init.Account.Balance)
	assert.Zero(t, init.Account.DailyPnL)
}

func TestCyclePublishesTicksPositionsAndDepth(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol: "ES", Side: domain.OrderSideBuy, Qty: 1, Type: domain.OrderTypeMarket,
	})
	require.NoError(t, err)

	r := &recorder{id: "client"}
	e.Broadcaster().Subscribe(r)

	now := time.Date(2025, 6, 1, 12, 0, 1, 0, time.UTC)
	e.cycle(now)

	// init, tick ES, position ES, tick CL, then one depth per symbol.
	kinds := r.kinds()
	require.Equal(t, []domain.EventType{
		domain.EventTypeInit,
		domain.EventTypeTick,
		domain.EventTypePosition,
		domain.EventTypeTick,
		domain.EventTypeDepth,
		domain.EventTypeDepth,
	}, kinds)

	tick := r.events[1].(domain.TickEvent)
	assert.Equal(t, "ES", tick.Symbol)
	assert.Equal(t, now, tick.Time)
	assert.GreaterOrEqual(t, tick.Size, 1)
	assert.LessOrEqual(t, tick.Size, 50)

	pos := r.events[2].(domain.PositionEvent)
	assert.Equal(t, "ES", pos.Symbol)
	assert.Equal(t, tick.Price, pos.CurrentPrice)
}

func TestCycleSealsBarsAtInterval(t *testing.T) {
	e := newTestEngine(t)
	r := &recorder{id: "client"}
	e.Broadcaster().Subscribe(r)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		e.cycle(base.Add(time.Duration(i) * time.Second))
	}

	var sealed []domain.BarEvent
	for _, ev := range r.events {
		if bar, ok := ev.(domain.BarEvent); ok {
			sealed = append(sealed, bar)
		}
	}
	// One bar per symbol sealed at the 5s boundary.
	require.Len(t, sealed, 2)
	assert.Equal(t, "ES", sealed[0].Bar.Symbol)
	assert.Equal(t, "CL", sealed[1].Bar.Symbol)

	history, err := e.BarHistory("ES", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, sealed[0].Bar, history[0])

	_, err = e.BarHistory("GC", 10)
	assert.True(t, errors.Is(err, domain.ErrUnknownSymbol))
}

func TestPlaceOrderPublishesFillAndAccount(t *testing.T) {
	e := newTestEngine(t)
	r := &recorder{id: "client"}
	e.Broadcaster().Subscribe(r)

	order, err := e.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol: "ES", Side: domain.OrderSideBuy, Qty: 2, Type: domain.OrderTypeMarket,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFilled, order.Status)

	require.Len(t, r.events, 3) // init, fill, account
	fill, ok := r.events[1].(domain.FillEvent)
	require.True(t, ok)
	assert.Equal(t, order.ID, fill.OrderID)
	assert.Equal(t, "ES", fill.Symbol)
	assert.Equal(t, 2, fill.Qty)

	account, ok := r.events[2].(domain.AccountEvent)
	require.True(t, ok)
	assert.Equal(t, 50000.0, account.Balance)
}

func TestLimitOrderPublishesNothing(t *testing.T) {
	e := newTestEngine(t)
	r := &recorder{id: "client"}
	e.Broadcaster().Subscribe(r)

	price := 5880.0
	order, err := e.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol: "ES", Side: domain.OrderSideBuy, Qty: 1, Type: domain.OrderTypeLimit, Price: &price,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Len(t, r.events, 1) // init only

	require.Len(t, e.PendingOrders(), 1)
	assert.True(t, e.CancelOrder(context.Background(), order.ID))
	assert.False(t, e.CancelOrder(context.Background(), order.ID))
}

func TestFlattenPublishesAccountOnceAndReportsTrades(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol: "ES", Side: domain.OrderSideBuy, Qty: 1, Type: domain.OrderTypeMarket,
	})
	require.NoError(t, err)
	_, err = e.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol: "CL", Side: domain.OrderSideSell, Qty: 3, Type: domain.OrderTypeMarket,
	})
	require.NoError(t, err)

	r := &recorder{id: "client"}
	e.Broadcaster().Subscribe(r)

	trades := e.Flatten(context.Background(), "")
	require.Len(t, trades, 2)
	assert.Empty(t, e.Positions())

	require.Len(t, r.events, 2) // init + one account event
	_, ok := r.events[1].(domain.AccountEvent)
	assert.True(t, ok)

	// Flattening a flat book publishes nothing further.
	assert.Empty(t, e.Flatten(context.Background(), ""))
	assert.Len(t, r.events, 2)
}

func TestMarketReturnsSpecPriceAndDepth(t *testing.T) {
	e := newTestEngine(t)

	spec, price, depth, err := e.Market("ES")
	require.NoError(t, err)
	assert.Equal(t, "ES", spec.Symbol)
	assert.Equal(t, 0.25, spec.TickSize)
	assert.Equal(t, 50.0, spec.PointValue)
	assert.Equal(t, 5890.00, price)
	assert.Len(t, depth.Bids, 10)
	assert.Len(t, depth.Asks, 10)

	_, _, _, err = e.Market("GC")
	assert.True(t, errors.Is(err, domain.ErrUnknownSymbol))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	e := newTestEngine(t)
	e.cfg.TickInterval = time.Hour // no cycles during the test

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}
