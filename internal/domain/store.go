package domain

import (
	"context"
	"time"
)

// TradeStore is an append-only sink for closed trades. Archival is
// fire-and-forget from the simulator's perspective: a failing store must
// never block or fail the fill path.
type TradeStore interface {
	Insert(ctx context.Context, trade Trade) error
	ListRecent(ctx context.Context, limit int) ([]Trade, error)
}

// BarStore persists sealed bars.
type BarStore interface {
	Insert(ctx context.Context, bar Bar) error
	ListBySymbol(ctx context.Context, symbol, timeframe string, limit int) ([]Bar, error)
}

// PriceCache holds the latest quantized price per symbol for out-of-process
// readers.
type PriceCache interface {
	SetPrice(ctx context.Context, symbol string, price float64, ts time.Time) error
	GetPrice(ctx context.Context, symbol string) (float64, time.Time, error)
}
