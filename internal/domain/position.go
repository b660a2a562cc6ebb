package domain

import "time"

// PositionSide is the direction of an open position.
type PositionSide string

const (
	PositionSideLong  PositionSide = "LONG"
	PositionSideShort PositionSide = "SHORT"
)

// Position is an open position on a symbol. At most one position per symbol
// exists at any time; quantity is always positive.
type Position struct {
	Symbol    string       `json:"symbol"`
	Side      PositionSide `json:"side"`
	Qty       int          `json:"qty"`
	AvgPrice  float64      `json:"avg_price"`
	EntryTime time.Time    `json:"entry_time"`
}

// Closes reports whether an incoming order side reduces this position.
func (p Position) Closes(side OrderSide) bool {
	return (p.Side == PositionSideLong && side == OrderSideSell) ||
		(p.Side == PositionSideShort && side == OrderSideBuy)
}

// PositionView is a position enriched with the live mark price and
// unrealized PnL for read endpoints and stream updates.
type PositionView struct {
	Position
	CurrentPrice  float64 `json:"current_price"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}
