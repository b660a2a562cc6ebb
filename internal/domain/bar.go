package domain

import "time"

// Bar is a fixed-interval OHLCV bar. The JSON field names match the wire
// contract consumed by the charting frontend.
type Bar struct {
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"tf"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    int64     `json:"v"`
	Start     time.Time `json:"t"`
}
