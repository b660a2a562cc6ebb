package domain

import "time"

// EventType tags one of the closed set of stream event variants.
type EventType string

const (
	EventTypeInit     EventType = "init"
	EventTypeTick     EventType = "tick"
	EventTypeBar      EventType = "bar"
	EventTypeDepth    EventType = "dom"
	EventTypePosition EventType = "position"
	EventTypeFill     EventType = "fill"
	EventTypeAccount  EventType = "account"
)

// Event is one member of the closed set of stream event variants. Every
// variant is a plain struct with fixed fields and a "type" JSON tag so the
// transport layer and tests have a stable contract.
type Event interface {
	Kind() EventType
}

// InitEvent is sent once to every newly subscribed consumer, before any
// live stream events, carrying current per-symbol prices and the account.
type InitEvent struct {
	Type    EventType             `json:"type"`
	Demo    bool                  `json:"demo_mode"`
	Symbols map[string]InitSymbol `json:"symbols"`
	Account InitAccount           `json:"account"`
}

// InitSymbol is the per-symbol slice of an InitEvent.
type InitSymbol struct {
	Price    float64 `json:"price"`
	TickSize float64 `json:"tick"`
}

// InitAccount is the account slice of an InitEvent.
type InitAccount struct {
	Balance  float64 `json:"balance"`
	DailyPnL float64 `json:"daily_pnl"`
}

func (e InitEvent) Kind() EventType { return EventTypeInit }

// NewInitEvent builds an InitEvent with its type tag set.
func NewInitEvent(demo bool, symbols map[string]InitSymbol, account InitAccount) InitEvent {
	return InitEvent{Type: EventTypeInit, Demo: demo, Symbols: symbols, Account: account}
}

// TickEvent is a single simulated trade print.
type TickEvent struct {
	Type   EventType `json:"type"`
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Size   int       `json:"size"`
	Time   time.Time `json:"time"`
}

func (e TickEvent) Kind() EventType { return EventTypeTick }

// NewTickEvent builds a TickEvent with its type tag set.
func NewTickEvent(symbol string, price float64, size int, ts time.Time) TickEvent {
	return TickEvent{Type: EventTypeTick, Symbol: symbol, Price: price, Size: size, Time: ts}
}

// BarEvent carries a just-sealed bar.
type BarEvent struct {
	Type EventType `json:"type"`
	Bar
}

func (e BarEvent) Kind() EventType { return EventTypeBar }

// NewBarEvent builds a BarEvent with its type tag set.
func NewBarEvent(bar Bar) BarEvent {
	return BarEvent{Type: EventTypeBar, Bar: bar}
}

// DepthEvent carries a fresh synthesized depth snapshot.
type DepthEvent struct {
	Type EventType `json:"type"`
	DepthSnapshot
}

func (e DepthEvent) Kind() EventType { return EventTypeDepth }

// NewDepthEvent builds a DepthEvent with its type tag set.
func NewDepthEvent(snap DepthSnapshot) DepthEvent {
	return DepthEvent{Type: EventTypeDepth, DepthSnapshot: snap}
}

// PositionEvent carries the live mark of one open position.
type PositionEvent struct {
	Type EventType `json:"type"`
	PositionView
}

func (e PositionEvent) Kind() EventType { return EventTypePosition }

// NewPositionEvent builds a PositionEvent with its type tag set.
func NewPositionEvent(view PositionView) PositionEvent {
	return PositionEvent{Type: EventTypePosition, PositionView: view}
}

// FillEvent announces an order fill.
type FillEvent struct {
	Type    EventType `json:"type"`
	OrderID int64     `json:"order_id"`
	Symbol  string    `json:"symbol"`
	Side    OrderSide `json:"side"`
	Price   float64   `json:"price"`
	Qty     int       `json:"qty"`
}

func (e FillEvent) Kind() EventType { return EventTypeFill }

// NewFillEvent builds a FillEvent with its type tag set.
func NewFillEvent(order Order) FillEvent {
	return FillEvent{
		Type:    EventTypeFill,
		OrderID: order.ID,
		Symbol:  order.Symbol,
		Side:    order.Side,
		Price:   order.Price,
		Qty:     order.Qty,
	}
}

// AccountEvent announces a balance or daily-PnL change.
type AccountEvent struct {
	Type     EventType `json:"type"`
	Balance  float64   `json:"balance"`
	DailyPnL float64   `json:"daily_pnl"`
}

func (e AccountEvent) Kind() EventType { return EventTypeAccount }

// NewAccountEvent builds an AccountEvent with its type tag set.
func NewAccountEvent(balance, dailyPnL float64) AccountEvent {
	return AccountEvent{Type: EventTypeAccount, Balance: balance, DailyPnL: dailyPnL}
}
