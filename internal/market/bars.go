package market

import (
	"time"

	"github.com/quadscalp/futsim/internal/domain"
)

// BarAggregator buckets successive prices into fixed-interval OHLCV bars per
// symbol and keeps a bounded rolling history of sealed bars.
//
// BarAggregator is not safe for concurrent use; the engine serializes access.
type BarAggregator struct {
	interval   time.Duration
	timeframe  string
	maxHistory int
	current    map[string]*domain.Bar
	history    map[string][]domain.Bar
}

// NewBarAggregator opens an initial bar for every symbol with
// open=high=low=close at the symbol's initial price and start=now.
func NewBarAggregator(specs []domain.SymbolSpec, interval time.Duration, maxHistory int, now time.Time) *BarAggregator {
	a := &BarAggregator{
		interval:   interval,
		timeframe:  interval.String(),
		maxHistory: maxHistory,
		current:    make(map[string]*domain.Bar, len(specs)),
		history:    make(map[string][]domain.Bar, len(specs)),
	}
	for _, spec := range specs {
		a.current[spec.Symbol] = newBar(spec.Symbol, a.timeframe, spec.InitialPrice, now)
	}
	return a
}

func newBar(symbol, timeframe string, price float64, start time.Time) *domain.Bar {
	return &domain.Bar{
		Symbol:    symbol,
		Timeframe: timeframe,
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
		Volume:    0,
		Start:     start,
	}
}

// Update folds one price/volume observation into the symbol's current bar.
// When the bar's interval has elapsed the bar is sealed, appended to history,
// and returned; a fresh bar is opened at the observed price. A sealed bar is
// returned exactly once per interval boundary.
func (a *BarAggregator) Update(symbol string, price float64, volume int, now time.Time) *domain.Bar {
	bar, ok := a.current[symbol]
	if !ok {
		bar = newBar(symbol, a.timeframe, price, now)
		a.current[symbol] = bar
	}

	if price > bar.High {
		bar.High = price
	}
	if price < bar.Low {
		bar.Low = price
	}
	bar.Close = price
	bar.Volume += int64(volume)

	if now.Sub(bar.Start) < a.interval {
		return nil
	}

	sealed := *bar
	a.history[symbol] = append(a.history[symbol], sealed)
	if excess := len(a.history[symbol]) - a.maxHistory; excess > 0 {
		a.history[symbol] = a.history[symbol][excess:]
	}
	a.current[symbol] = newBar(symbol, a.timeframe, price, now)
	return &sealed
}

// Current returns a copy of the symbol's open bar.
func (a *BarAggregator) Current(symbol string) (domain.Bar, bool) {
	bar, ok := a.current[symbol]
	if !ok {
		return domain.Bar{}, false
	}
	return *bar, true
}

// History returns up to count sealed bars for symbol, oldest first. count <= 0
// returns the full retained history.
func (a *BarAggregator) History(symbol string, count int) []domain.Bar {
	bars := a.history[symbol]
	if count > 0 && len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	out := make([]domain.Bar, len(bars))
	copy(out, bars)
	return out
}

// Timeframe returns the label applied to bars, derived from the interval.
func (a *BarAggregator) Timeframe() string {
	return a.timeframe
}
