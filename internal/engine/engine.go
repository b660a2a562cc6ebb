// Package engine owns the simulator's mutable state and its coordination
// loop. A single Engine serializes every read-then-write operation on the
// price process, bar aggregator, and ledger behind one mutex, so the periodic
// market cycle and externally triggered mutations (place, cancel, flatten)
// never interleave partially. No call blocks on external I/O while the lock
// is held: event delivery is non-blocking fan-out and archival is
// fire-and-forget.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/quadscalp/futsim/internal/domain"
	"github.com/quadscalp/futsim/internal/ledger"
	"github.com/quadscalp/futsim/internal/market"
	"github.com/quadscalp/futsim/internal/stream"

	"sync"
)

// archiveTimeout bounds each background archival write.
const archiveTimeout = 5 * time.Second

// Config holds engine parameters.
type Config struct {
	TickInterval time.Duration
	DepthLevels  int
	Demo         bool
}

// Engine is the sequential authority over the simulated market and account.
type Engine struct {
	mu sync.Mutex

	cfg         Config
	market      *market.PriceProcess
	bars        *market.BarAggregator
	ledger      *ledger.Ledger
	broadcaster *stream.Broadcaster
	logger      *slog.Logger

	// Optional collaborators; nil disables the concern.
	tradeStore domain.TradeStore
	barStore   domain.BarStore
	priceCache domain.PriceCache
}

// New assembles an Engine. tradeStore, barStore, and priceCache may be nil;
// the simulator is fully functional without persistence, as archival is
// best-effort by contract.
func New(
	cfg Config,
	mkt *market.PriceProcess,
	bars *market.BarAggregator,
	led *ledger.Ledger,
	broadcaster *stream.Broadcaster,
	tradeStore domain.TradeStore,
	barStore domain.BarStore,
	priceCache domain.PriceCache,
	logger *slog.Logger,
) *Engine {
	e := &Engine{
		cfg:         cfg,
		market:      mkt,
		bars:        bars,
		ledger:      led,
		broadcaster: broadcaster,
		tradeStore:  tradeStore,
		barStore:    barStore,
		priceCache:  priceCache,
		logger:      logger.With(slog.String("component", "engine")),
	}
	broadcaster.SetInit(e.initEvent)
	return e
}

// Broadcaster exposes the fan-out for transport wiring.
func (e *Engine) Broadcaster() *stream.Broadcaster {
	return e.broadcaster
}

// initEvent builds the on-connect snapshot: current per-symbol price and tick
// size plus the account balance and daily PnL.
func (e *Engine) initEvent() domain.Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	symbols := make(map[string]domain.InitSymbol)
	for _, sym := range e.market.Symbols() {
		spec, _ := e.market.Spec(sym)
		price, err := e.market.Price(sym)
		if err != nil {
			continue
		}
		symbols[sym] = domain.InitSymbol{Price: price, TickSize: spec.TickSize}
	}
	return domain.NewInitEvent(e.cfg.Demo, symbols, domain.InitAccount{
		Balance:  e.ledger.Balance(),
		DailyPnL: e.ledger.DailyPnL(),
	})
}

// PlaceOrder validates and applies an order, then publishes the resulting
// fill and account events and archives any closed trade.
func (e *Engine) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error) {
	e.mu.Lock()
	order, trade, err := e.ledger.PlaceOrder(req, time.Now().UTC())
	var balance, dailyPnL float64
	if err == nil {
		balance = e.ledger.Balance()
		dailyPnL = e.ledger.DailyPnL()
	}
	e.mu.Unlock()

	if err != nil {
		return domain.Order{}, err
	}

	if order.Status == domain.OrderStatusFilled {
		e.broadcaster.Publish(domain.NewFillEvent(order))
		e.broadcaster.Publish(domain.NewAccountEvent(balance, dailyPnL))
	}
	if trade != nil {
		e.archiveTrade(*trade)
	}

	e.logger.InfoContext(ctx, "order placed",
		slog.Int64("order_id", order.ID),
		slog.String("symbol", order.Symbol),
		slog.String("side", string(order.Side)),
		slog.Int("qty", order.Qty),
		slog.String("type", string(order.Type)),
		slog.String("status", string(order.Status)),
	)
	return order, nil
}

// CancelOrder cancels a pending order. False means unknown id or an order
// that is no longer pending.
func (e *Engine) CancelOrder(ctx context.Context, id int64) bool {
	e.mu.Lock()
	ok := e.ledger.CancelOrder(id)
	e.mu.Unlock()

	if ok {
		e.logger.InfoContext(ctx, "order cancelled", slog.Int64("order_id", id))
	}
	return ok
}

// Flatten closes all open positions (or just one symbol's) at the current
// price, publishing an account event when anything closed.
func (e *Engine) Flatten(ctx context.Context, symbol string) []domain.Trade {
	e.mu.Lock()
	trades := e.ledger.Flatten(symbol, time.Now().UTC())
	balance := e.ledger.Balance()
	dailyPnL := e.ledger.DailyPnL()
	e.mu.Unlock()

	if len(trades) > 0 {
		e.broadcaster.Publish(domain.NewAccountEvent(balance, dailyPnL))
	}
	for _, trade := range trades {
		e.archiveTrade(trade)
	}

	e.logger.InfoContext(ctx, "flatten",
		slog.String("symbol", symbol),
		slog.Int("closed", len(trades)),
	)
	return trades
}

// Account returns the current account snapshot.
func (e *Engine) Account() domain.AccountSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Snapshot()
}

// Positions returns open positions marked to the live price.
func (e *Engine) Positions() []domain.PositionView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.PositionViews()
}

// PendingOrders returns all resting orders.
func (e *Engine) PendingOrders() []domain.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.PendingOrders()
}

// RecentTrades returns up to limit closed trades, most recent first.
func (e *Engine) RecentTrades(limit int) []domain.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.RecentTrades(limit)
}

// BarHistory returns up to count sealed bars for symbol, oldest first.
func (e *Engine) BarHistory(symbol string, count int) ([]domain.Bar, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.market.Spec(symbol); !ok {
		return nil, domain.ErrUnknownSymbol
	}
	return e.bars.History(symbol, count), nil
}

// Market returns the instrument spec, current price, and a fresh depth
// snapshot for one symbol.
func (e *Engine) Market(symbol string) (domain.SymbolSpec, float64, domain.DepthSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	spec, ok := e.market.Spec(symbol)
	if !ok {
		return domain.SymbolSpec{}, 0, domain.DepthSnapshot{}, domain.ErrUnknownSymbol
	}
	price, err := e.market.Price(symbol)
	if err != nil {
		return domain.SymbolSpec{}, 0, domain.DepthSnapshot{}, err
	}
	depth, err := e.market.Depth(symbol, e.cfg.DepthLevels)
	if err != nil {
		return domain.SymbolSpec{}, 0, domain.DepthSnapshot{}, err
	}
	return spec, price, depth, nil
}

// Symbols returns the tracked symbols in configuration order.
func (e *Engine) Symbols() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.market.Symbols()
}

// archiveTrade appends a closed trade to the archival sink without blocking
// the caller. Failures are logged and otherwise ignored.
func (e *Engine) archiveTrade(trade domain.Trade) {
	if e.tradeStore == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := e.tradeStore.Insert(ctx, trade); err != nil {
			e.logger.Warn("trade archive failed",
				slog.Int64("trade_id", trade.ID),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// archiveBar persists a sealed bar without blocking the caller.
func (e *Engine) archiveBar(bar domain.Bar) {
	if e.barStore == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := e.barStore.Insert(ctx, bar); err != nil {
			e.logger.Warn("bar archive failed",
				slog.String("symbol", bar.Symbol),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// cachePrices mirrors the latest quantized prices into the external cache.
func (e *Engine) cachePrices(prices map[string]float64, ts time.Time) {
	if e.priceCache == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		for sym, price := range prices {
			if err := e.priceCache.SetPrice(ctx, sym, price, ts); err != nil {
				e.logger.Warn("price cache update failed",
					slog.String("symbol", sym),
					slog.String("error", err.Error()),
				)
				return
			}
		}
	}()
}
