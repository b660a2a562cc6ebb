package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The stream contract is consumed by WebSocket clients and the Redis event
// mirror, so the type tag and the flattening of embedded payloads must hold.

func marshalToMap(t *testing.T, e Event) map[string]any {
	t.Helper()
	raw, err := json.Marshal(e)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestEventTypeTags(t *testing.T) {
	ts := time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC)
	bar := Bar{Symbol: "ES", Timeframe: "5s", Open: 5890, High: 5891, Low: 5889.5, Close: 5890.75, Volume: 42, Start: ts}
	view := PositionView{
		Position:      Position{Symbol: "ES", Side: PositionSideLong, Qty: 2, AvgPrice: 5890, EntryTime: ts},
		CurrentPrice:  5892,
		UnrealizedPnL: 200,
	}

	cases := []struct {
		event Event
		want  EventType
	}{
		{NewInitEvent(true, nil, InitAccount{Balance: 50000}), EventTypeInit},
		{NewTickEvent("ES", 5890.25, 7, ts), EventTypeTick},
		{NewBarEvent(bar), EventTypeBar},
		{NewDepthEvent(DepthSnapshot{Symbol: "ES"}), EventTypeDepth},
		{NewPositionEvent(view), EventTypePosition},
		{NewFillEvent(Order{ID: 1, Symbol: "ES", Side: OrderSideBuy, Price: 5890.25, Qty: 2}), EventTypeFill},
		{NewAccountEvent(50200, 200), EventTypeAccount},
	}
	for _, tc := range cases {
		m := marshalToMap(t, tc.event)
		assert.Equal(t, string(tc.want), m["type"], "%T", tc.event)
		assert.Equal(t, tc.want, tc.event.Kind(), "%T", tc.event)
	}
}

func TestBarEventFlattensBarFields(t *testing.T) {
	ts := time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC)
	m := marshalToMap(t, NewBarEvent(Bar{
		Symbol: "NQ", Timeframe: "5s",
		Open: 21150, High: 21152, Low: 21149.75, Close: 21151.25, Volume: 18, Start: ts,
	}))

	assert.Equal(t, "bar", m["type"])
	assert.Equal(t, "NQ", m["symbol"])
	assert.Equal(t, 21150.0, m["o"])
	assert.Equal(t, 21152.0, m["h"])
	assert.Equal(t, 21149.75, m["l"])
	assert.Equal(t, 21151.25, m["c"])
	assert.Equal(t, 18.0, m["v"])
	_, nested := m["Bar"]
	assert.False(t, nested, "bar payload must be flattened into the envelope")
}

func TestPositionEventFlattensViewFields(t *testing.T) {
	ts := time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC)
	m := marshalToMap(t, NewPositionEvent(PositionView{
		Position:      Position{Symbol: "CL", Side: PositionSideShort, Qty: 1, AvgPrice: 71.50, EntryTime: ts},
		CurrentPrice:  71.40,
		UnrealizedPnL: 100,
	}))

	assert.Equal(t, "position", m["type"])
	assert.Equal(t, "CL", m["symbol"])
	assert.Equal(t, "SHORT", m["side"])
	assert.Equal(t, 71.5, m["avg_price"])
	assert.Equal(t, 71.4, m["current_price"])
	assert.Equal(t, 100.0, m["unrealized_pnl"])
}

func TestInitEventCarriesSymbolsAndAccount(t *testing.T) {
	symbols := map[string]InitSymbol{
		"ES": {Price: 5890, TickSize: 0.25},
		"CL": {Price: 71.5, TickSize: 0.01},
	}
	m := marshalToMap(t, NewInitEvent(true, symbols, InitAccount{Balance: 50000, DailyPnL: 0}))

	assert.Equal(t, "init", m["type"])
	assert.Equal(t, true, m["demo_mode"])
	acct, ok := m["account"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 50000.0, acct["balance"])
	syms, ok := m["symbols"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, syms, "ES")
	es := syms["ES"].(map[string]any)
	assert.Equal(t, 0.25, es["tick"])
}
