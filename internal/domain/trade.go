package domain

import "time"

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitReasonManual  ExitReason = "manual"
	ExitReasonFlatten ExitReason = "flatten"
)

// Trade is the immutable record of a completed round trip, created when a
// fill fully closes an existing position.
type Trade struct {
	ID         int64        `json:"id"`
	Symbol     string       `json:"symbol"`
	Side       PositionSide `json:"side"` // side of the closed position
	Qty        int          `json:"qty"`
	EntryPrice float64      `json:"entry_price"`
	ExitPrice  float64      `json:"exit_price"`
	PnL        float64      `json:"pnl"`
	EntryTime  time.Time    `json:"entry_time"`
	ExitTime   time.Time    `json:"exit_time"`
	ExitReason ExitReason   `json:"exit_type"`
}
