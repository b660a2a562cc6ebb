package domain

import "time"

// OrderSide indicates whether this is a buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Valid reports whether the side is one of the two known values.
func (s OrderSide) Valid() bool {
	return s == OrderSideBuy || s == OrderSideSell
}

// Opposite returns the other side.
func (s OrderSide) Opposite() OrderSide {
	if s == OrderSideBuy {
		return OrderSideSell
	}
	return OrderSideBuy
}

// OrderType is the execution model of an order.
type OrderType string

const (
	OrderTypeMarket OrderType = "MKT"
	OrderTypeLimit  OrderType = "LMT"
	OrderTypeStop   OrderType = "STP"
)

// Valid reports whether the type is one of the known values.
func (t OrderType) Valid() bool {
	return t == OrderTypeMarket || t == OrderTypeLimit || t == OrderTypeStop
}

// OrderStatus tracks the order lifecycle. Market orders go straight from
// pending to filled at creation; limit and stop orders rest pending until
// cancelled (there is no matching engine against later price moves).
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a simulated trading order.
type Order struct {
	ID        int64       `json:"id"`
	Symbol    string      `json:"symbol"`
	Side      OrderSide   `json:"side"`
	Qty       int         `json:"qty"`
	Type      OrderType   `json:"order_type"`
	Price     float64     `json:"price"` // fill price (MKT) or limit/stop price
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	FilledAt  *time.Time  `json:"filled_at,omitempty"`
}

// OrderRequest is the caller-supplied order submission payload.
type OrderRequest struct {
	Symbol string    `json:"symbol"`
	Side   OrderSide `json:"side"`
	Qty    int       `json:"qty"`
	Type   OrderType `json:"order_type"`
	Price  *float64  `json:"price,omitempty"` // required for LMT/STP
}
