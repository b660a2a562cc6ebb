package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarAggregatorSealsOnIntervalBoundary(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	agg := NewBarAggregator(testSpecs(), 5*time.Second, 100, start)

	require.Equal(t, "5s", agg.Timeframe())

	cur, ok := agg.Current("ES")
	require.True(t, ok)
	assert.Equal(t, 5890.00, cur.Open)
	assert.Equal(t, 5890.00, cur.Close)
	assert.Equal(t, start, cur.Start)

	// Observations inside the interval extend the bar but seal nothing.
	require.Nil(t, agg.Update("ES", 5891.00, 10, start.Add(1*time.Second)))
	require.Nil(t, agg.Update("ES", 5889.50, 5, start.Add(2*time.Second)))
	require.Nil(t, agg.Update("ES", 5890.25, 7, start.Add(4*time.Second)))

	// The observation at the boundary seals the bar.
	sealed := agg.Update("ES", 5890.75, 3, start.Add(5*time.Second))
	require.NotNil(t, sealed)
	assert.Equal(t, "ES", sealed.Symbol)
	assert.Equal(t, "5s", sealed.Timeframe)
	assert.Equal(t, 5890.00, sealed.Open)
	assert.Equal(t, 5891.00, sealed.High)
	assert.Equal(t, 5889.50, sealed.Low)
	assert.Equal(t, 5890.75, sealed.Close)
	assert.Equal(t, int64(25), sealed.Volume)
	assert.Equal(t, start, sealed.Start)

	// A fresh bar opened at the sealing price.
	cur, ok = agg.Current("ES")
	require.True(t, ok)
	assert.Equal(t, 5890.75, cur.Open)
	assert.Equal(t, int64(0), cur.Volume)
	assert.Equal(t, start.Add(5*time.Second), cur.Start)

	history := agg.History("ES", 0)
	require.Len(t, history, 1)
	assert.Equal(t, *sealed, history[0])
}

func TestBarAggregatorSealsExactlyOncePerInterval(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	agg := NewBarAggregator(testSpecs(), 5*time.Second, 100, start)

	sealedCount := 0
	now := start
	for i := 0; i < 30; i++ {
		now = now.Add(1 * time.Second)
		if bar := agg.Update("ES", 5890.00, 1, now); bar != nil {
			sealedCount++
		}
	}
	// 30 one-second observations across 5s intervals seal 6 bars.
	assert.Equal(t, 6, sealedCount)
	assert.Len(t, agg.History("ES", 0), 6)
}

func TestBarHistoryCapIsFIFO(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	agg := NewBarAggregator(testSpecs(), 5*time.Second, 3, start)

	now := start
	for i := 1; i <= 6; i++ {
		now = now.Add(5 * time.Second)
		// Distinct close per interval so bars are tellable apart.
		sealed := agg.Update("ES", 5890.00+float64(i), 1, now)
		require.NotNil(t, sealed)
	}

	history := agg.History("ES", 0)
	require.Len(t, history, 3)
	// Oldest three were evicted; the survivors stay in chronological order.
	assert.Equal(t, 5894.00, history[0].Close)
	assert.Equal(t, 5895.00, history[1].Close)
	assert.Equal(t, 5896.00, history[2].Close)
}

func TestBarHistoryCountReturnsNewestOldestFirst(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	agg := NewBarAggregator(testSpecs(), 5*time.Second, 100, start)

	now := start
	for i := 1; i <= 5; i++ {
		now = now.Add(5 * time.Second)
		require.NotNil(t, agg.Update("ES", 5890.00+float64(i), 1, now))
	}

	history := agg.History("ES", 2)
	require.Len(t, history, 2)
	assert.Equal(t, 5894.00, history[0].Close)
	assert.Equal(t, 5895.00, history[1].Close)

	assert.Empty(t, agg.History("GC", 10))
}
