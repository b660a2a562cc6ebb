package domain

// AccountSnapshot is a point-in-time read of the simulated account. Equity is
// balance plus the sum of unrealized PnL over all open positions; margin is a
// constant placeholder per open position.
type AccountSnapshot struct {
	Balance        float64 `json:"balance"`
	Equity         float64 `json:"equity"`
	DailyPnL       float64 `json:"daily_pnl"`
	UnrealizedPnL  float64 `json:"unrealized_pnl"`
	MarginUsed     float64 `json:"margin_used"`
	PositionsCount int     `json:"positions_count"`
}
