package domain

// DepthLevel is a single synthesized price+size rung in a depth snapshot.
type DepthLevel struct {
	Price float64 `json:"price"`
	Size  int     `json:"size"`
}

// DepthSnapshot is a synthesized order-book view: bids strictly below the
// current price, asks at or above it, each level one tick apart. It is a pure
// function of the current price; no depth state persists between snapshots.
type DepthSnapshot struct {
	Symbol string       `json:"symbol"`
	Bids   []DepthLevel `json:"bids"`
	Asks   []DepthLevel `json:"asks"`
}
