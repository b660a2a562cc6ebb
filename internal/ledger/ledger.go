// Package ledger tracks simulated orders, positions, trades, and the account
// balance. Fills net against existing positions: an order on the opposite
// side of an open position closes it in full and realizes PnL; an order on a
// flat symbol opens a new position. At most one position per symbol is held,
// so same-side adds, partial closes, and flips are rejected.
//
// The ledger is not safe for concurrent use; the engine serializes every
// mutating and reading call behind one lock.
package ledger

import (
	"fmt"
	"math"
	"time"

	"github.com/quadscalp/futsim/internal/domain"
)

// Market is the slice of the price process the ledger needs: the current
// quantized price for fills and marks, and the instrument spec for point
// values.
type Market interface {
	Price(symbol string) (float64, error)
	Spec(symbol string) (domain.SymbolSpec, bool)
}

// Config holds the account parameters.
type Config struct {
	StartingBalance   float64
	MarginPerContract float64
}

// Ledger owns all mutable trading state for the single simulated account.
type Ledger struct {
	market Market
	cfg    Config

	balance  float64
	dailyPnL float64

	positions   []domain.Position // at most one per symbol, in open order
	orders      []domain.Order
	trades      []domain.Trade
	nextOrderID int64
	nextTradeID int64
}

// New creates an empty Ledger with the configured starting balance.
func New(market Market, cfg Config) *Ledger {
	return &Ledger{
		market:      market,
		cfg:         cfg,
		balance:     cfg.StartingBalance,
		nextOrderID: 1,
		nextTradeID: 1,
	}
}

// PlaceOrder validates and records an order. Market orders fill synchronously
// at the current process price; limit and stop orders rest pending
// indefinitely. The returned trade is non-nil when the fill closed an
// existing position.
//
// Validation happens before any state change: a rejected order leaves the
// ledger untouched and consumes no order id. An opposing order whose quantity
// differs from the open position's quantity is rejected rather than partially
// closed or flipped.
func (l *Ledger) PlaceOrder(req domain.OrderRequest, now time.Time) (domain.Order, *domain.Trade, error) {
	if !req.Side.Valid() {
		return domain.Order{}, nil, fmt.Errorf("ledger: side %q: %w", req.Side, domain.ErrInvalidOrder)
	}
	if !req.Type.Valid() {
		return domain.Order{}, nil, fmt.Errorf("ledger: order type %q: %w", req.Type, domain.ErrInvalidOrder)
	}
	if req.Qty <= 0 {
		return domain.Order{}, nil, fmt.Errorf("ledger: qty %d: %w", req.Qty, domain.ErrInvalidOrder)
	}
	if req.Type != domain.OrderTypeMarket && req.Price == nil {
		return domain.Order{}, nil, fmt.Errorf("ledger: price required for %s orders: %w", req.Type, domain.ErrInvalidOrder)
	}

	spec, ok := l.market.Spec(req.Symbol)
	if !ok {
		return domain.Order{}, nil, fmt.Errorf("ledger: symbol %q: %w", req.Symbol, domain.ErrUnknownSymbol)
	}

	fillPrice, err := l.market.Price(req.Symbol)
	if err != nil {
		return domain.Order{}, nil, err
	}
	if req.Type != domain.OrderTypeMarket && req.Price != nil {
		// Demo fill model: resting orders carry their own price.
		fillPrice = *req.Price
	}

	if req.Type == domain.OrderTypeMarket {
		if pos, idx := l.find(req.Symbol); idx >= 0 {
			if !pos.Closes(req.Side) {
				return domain.Order{}, nil, fmt.Errorf(
					"ledger: %s position already open on %s (adding to a position is unsupported): %w",
					pos.Side, req.Symbol, domain.ErrInvalidOrder,
				)
			}
			if pos.Qty != req.Qty {
				return domain.Order{}, nil, fmt.Errorf(
					"ledger: qty %d does not match open %s position of %d (partial close and flip unsupported): %w",
					req.Qty, pos.Side, pos.Qty, domain.ErrInvalidOrder,
				)
			}
		}
	}

	order := domain.Order{
		ID:        l.nextOrderID,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Qty:       req.Qty,
		Type:      req.Type,
		Price:     fillPrice,
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
	}
	l.nextOrderID++

	var trade *domain.Trade
	if req.Type == domain.OrderTypeMarket {
		order.Status = domain.OrderStatusFilled
		filled := now
		order.FilledAt = &filled
		trade = l.applyFill(req.Symbol, req.Side, req.Qty, fillPrice, spec.PointValue, now, domain.ExitReasonManual)
	}

	l.orders = append(l.orders, order)
	return order, trade, nil
}

// applyFill nets a fill against the symbol's open position. Callers guarantee
// that an opposing position, if present, has exactly qty contracts.
func (l *Ledger) applyFill(symbol string, side domain.OrderSide, qty int, price, pointValue float64, now time.Time, reason domain.ExitReason) *domain.Trade {
	if pos, idx := l.find(symbol); idx >= 0 && pos.Closes(side) {
		var pnl float64
		if pos.Side == domain.PositionSideLong {
			pnl = (price - pos.AvgPrice) * pointValue * float64(pos.Qty)
		} else {
			pnl = (pos.AvgPrice - price) * pointValue * float64(pos.Qty)
		}
		pnl = round2(pnl)
		l.balance = round2(l.balance + pnl)
		l.dailyPnL = round2(l.dailyPnL + pnl)

		trade := domain.Trade{
			ID:         l.nextTradeID,
			Symbol:     symbol,
			Side:       pos.Side,
			Qty:        pos.Qty,
			EntryPrice: pos.AvgPrice,
			ExitPrice:  price,
			PnL:        pnl,
			EntryTime:  pos.EntryTime,
			ExitTime:   now,
			ExitReason: reason,
		}
		l.nextTradeID++
		l.trades = append(l.trades, trade)
		l.positions = append(l.positions[:idx], l.positions[idx+1:]...)
		return &trade
	}

	posSide := domain.PositionSideLong
	if side == domain.OrderSideSell {
		posSide = domain.PositionSideShort
	}
	l.positions = append(l.positions, domain.Position{
		Symbol:    symbol,
		Side:      posSide,
		Qty:       qty,
		AvgPrice:  price,
		EntryTime: now,
	})
	return nil
}

// CancelOrder transitions a pending order to cancelled. It returns false,
// not an error, when the id is unknown or the order has already been filled
// or cancelled.
func (l *Ledger) CancelOrder(id int64) bool {
	for i := range l.orders {
		if l.orders[i].ID == id && l.orders[i].Status == domain.OrderStatusPending {
			l.orders[i].Status = domain.OrderStatusCancelled
			return true
		}
	}
	return false
}

// Flatten closes every open position (restricted to one symbol when symbol is
// non-empty) with a synthesized opposing market fill at the current price.
// It returns the resulting trades in position-open order.
func (l *Ledger) Flatten(symbol string, now time.Time) []domain.Trade {
	var closed []domain.Trade
	for _, pos := range l.snapshotPositions() {
		if symbol != "" && pos.Symbol != symbol {
			continue
		}
		spec, ok := l.market.Spec(pos.Symbol)
		if !ok {
			continue
		}
		price, err := l.market.Price(pos.Symbol)
		if err != nil {
			continue
		}
		side := domain.OrderSideSell
		if pos.Side == domain.PositionSideShort {
			side = domain.OrderSideBuy
		}
		if trade := l.applyFill(pos.Symbol, side, pos.Qty, price, spec.PointValue, now, domain.ExitReasonFlatten); trade != nil {
			closed = append(closed, *trade)
		}
	}
	return closed
}

// UnrealizedPnL marks one position to the given price. Pure read.
func (l *Ledger) UnrealizedPnL(pos domain.Position, currentPrice float64) float64 {
	spec, ok := l.market.Spec(pos.Symbol)
	if !ok {
		return 0
	}
	var pnl float64
	if pos.Side == domain.PositionSideLong {
		pnl = (currentPrice - pos.AvgPrice) * spec.PointValue * float64(pos.Qty)
	} else {
		pnl = (pos.AvgPrice - currentPrice) * spec.PointValue * float64(pos.Qty)
	}
	return round2(pnl)
}

// Position returns the open position on symbol, if any.
func (l *Ledger) Position(symbol string) (domain.Position, bool) {
	pos, idx := l.find(symbol)
	if idx < 0 {
		return domain.Position{}, false
	}
	return pos, true
}

// Positions returns copies of all open positions in open order.
func (l *Ledger) Positions() []domain.Position {
	return l.snapshotPositions()
}

// PositionViews returns all open positions marked to the live price.
func (l *Ledger) PositionViews() []domain.PositionView {
	views := make([]domain.PositionView, 0, len(l.positions))
	for _, pos := range l.positions {
		price, err := l.market.Price(pos.Symbol)
		if err != nil {
			continue
		}
		views = append(views, domain.PositionView{
			Position:      pos,
			CurrentPrice:  price,
			UnrealizedPnL: l.UnrealizedPnL(pos, price),
		})
	}
	return views
}

// PendingOrders returns all orders still resting.
func (l *Ledger) PendingOrders() []domain.Order {
	var pending []domain.Order
	for _, o := range l.orders {
		if o.Status == domain.OrderStatusPending {
			pending = append(pending, o)
		}
	}
	return pending
}

// RecentTrades returns up to limit closed trades, most recent first.
func (l *Ledger) RecentTrades(limit int) []domain.Trade {
	n := len(l.trades)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]domain.Trade, 0, n)
	for i := len(l.trades) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.trades[i])
	}
	return out
}

// Snapshot assembles the current account view. Pure read: it never mutates
// balance, daily PnL, or positions.
func (l *Ledger) Snapshot() domain.AccountSnapshot {
	var unrealized float64
	for _, view := range l.PositionViews() {
		unrealized += view.UnrealizedPnL
	}
	return domain.AccountSnapshot{
		Balance:        round2(l.balance),
		Equity:         round2(l.balance + unrealized),
		DailyPnL:       round2(l.dailyPnL),
		UnrealizedPnL:  round2(unrealized),
		MarginUsed:     float64(len(l.positions)) * l.cfg.MarginPerContract,
		PositionsCount: len(l.positions),
	}
}

// Balance returns the current account balance.
func (l *Ledger) Balance() float64 { return l.balance }

// DailyPnL returns the realized PnL booked today.
func (l *Ledger) DailyPnL() float64 { return l.dailyPnL }

func (l *Ledger) find(symbol string) (domain.Position, int) {
	for i, pos := range l.positions {
		if pos.Symbol == symbol {
			return pos, i
		}
	}
	return domain.Position{}, -1
}

func (l *Ledger) snapshotPositions() []domain.Position {
	out := make([]domain.Position, len(l.positions))
	copy(out, l.positions)
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
