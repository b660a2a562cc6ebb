package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/quadscalp/futsim/internal/domain"
)

// Run drives the market loop: once per tick interval it advances the price
// process for every symbol, folds the new prices into the bar aggregator,
// and fans the resulting tick, bar, position, and depth events out to
// subscribers. Cancellation is checked once per cycle; a cycle that has
// started always publishes completely.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.InfoContext(ctx, "market loop starting",
		slog.Duration("interval", e.cfg.TickInterval),
	)

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("market loop stopped")
			return ctx.Err()
		case now := <-ticker.C:
			e.cycle(now.UTC())
		}
	}
}

// cycle performs one coordinated advance of the whole market. All state
// mutation happens atomically under the engine lock; events are collected
// during the pass and published after the lock is released.
func (e *Engine) cycle(now time.Time) {
	e.mu.Lock()

	var (
		events  []domain.Event
		sealed  []domain.Bar
		prices  = make(map[string]float64)
		symbols = e.market.Symbols()
	)

	for _, sym := range symbols {
		price, size, err := e.market.Tick(sym)
		if err != nil {
			continue
		}
		prices[sym] = price

		events = append(events, domain.NewTickEvent(sym, price, size, now))

		if bar := e.bars.Update(sym, price, size, now); bar != nil {
			events = append(events, domain.NewBarEvent(*bar))
			sealed = append(sealed, *bar)
		}

		if pos, ok := e.ledger.Position(sym); ok {
			events = append(events, domain.NewPositionEvent(domain.PositionView{
				Position:      pos,
				CurrentPrice:  price,
				UnrealizedPnL: e.ledger.UnrealizedPnL(pos, price),
			}))
		}
	}

	for _, sym := range symbols {
		if snap, err := e.market.Depth(sym, e.cfg.DepthLevels); err == nil {
			events = append(events, domain.NewDepthEvent(snap))
		}
	}

	e.mu.Unlock()

	for _, ev := range events {
		e.broadcaster.Publish(ev)
	}
	for _, bar := range sealed {
		e.archiveBar(bar)
	}
	e.cachePrices(prices, now)
}
