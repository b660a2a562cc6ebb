// Package domain defines the core data model for the futures paper-trading
// simulator: instrument specs, bars, orders, positions, trades, account
// snapshots, and the tagged event set streamed to clients.
package domain

// SymbolSpec is the static per-instrument configuration. Immutable after
// config load.
type SymbolSpec struct {
	Symbol       string  `json:"symbol"`
	TickSize     float64 `json:"tick_size"`
	PointValue   float64 `json:"point_value"`
	Volatility   float64 `json:"volatility"`
	InitialPrice float64 `json:"initial_price"`
}
