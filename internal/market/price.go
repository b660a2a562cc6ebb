// Package market implements the synthetic market: a per-symbol stochastic
// price process with tick-size quantization, a fixed-interval bar aggregator,
// and synthesized order-book depth snapshots.
package market

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/quadscalp/futsim/internal/domain"
)

const (
	// reversionFactor scales the pull toward the benchmark reference price.
	reversionFactor = 0.00001

	// minTickVolume and maxTickVolume bound the synthetic per-tick volume.
	minTickVolume = 1
	maxTickVolume = 50

	// minDepthSize and maxDepthSize bound synthetic depth level sizes.
	minDepthSize = 10
	maxDepthSize = 300
)

// PriceProcess generates a continuous price series per symbol: Gaussian
// increments with stddev = volatility × price, quantized to the instrument's
// tick size. The benchmark symbol carries a mean-reverting drift toward its
// initial price; all other symbols drift-free.
//
// PriceProcess is not safe for concurrent use; the engine serializes access.
type PriceProcess struct {
	specs     map[string]domain.SymbolSpec
	order     []string // symbols in configuration order
	prices    map[string]float64
	benchmark string
	reference float64
	rng       *rand.Rand
	logger    *slog.Logger
}

// NewPriceProcess creates a PriceProcess seeded at each symbol's initial
// price. benchmark names the mean-reverting instrument; it may be empty or
// unknown, in which case every symbol random-walks without drift.
func NewPriceProcess(specs []domain.SymbolSpec, benchmark string, rng *rand.Rand, logger *slog.Logger) *PriceProcess {
	p := &PriceProcess{
		specs:     make(map[string]domain.SymbolSpec, len(specs)),
		order:     make([]string, 0, len(specs)),
		prices:    make(map[string]float64, len(specs)),
		benchmark: benchmark,
		rng:       rng,
		logger:    logger.With(slog.String("component", "market")),
	}
	for _, spec := range specs {
		p.specs[spec.Symbol] = spec
		p.order = append(p.order, spec.Symbol)
		p.prices[spec.Symbol] = spec.InitialPrice
		if spec.Symbol == benchmark {
			p.reference = spec.InitialPrice
		}
	}
	return p
}

// Symbols returns the tracked symbols in configuration order.
func (p *PriceProcess) Symbols() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Spec returns the static instrument configuration for a symbol.
func (p *PriceProcess) Spec(symbol string) (domain.SymbolSpec, bool) {
	spec, ok := p.specs[symbol]
	return spec, ok
}

// Price returns the current quantized price for a symbol.
func (p *PriceProcess) Price(symbol string) (float64, error) {
	price, ok := p.prices[symbol]
	if !ok {
		return 0, fmt.Errorf("market: price %s: %w", symbol, domain.ErrUnknownSymbol)
	}
	return price, nil
}

// Tick advances the price process one step for symbol and returns the new
// quantized price together with a synthetic trade volume in [1,50].
func (p *PriceProcess) Tick(symbol string) (float64, int, error) {
	spec, ok := p.specs[symbol]
	if !ok {
		return 0, 0, fmt.Errorf("market: tick %s: %w", symbol, domain.ErrUnknownSymbol)
	}

	price := p.prices[symbol]

	var drift float64
	if symbol == p.benchmark {
		drift = (p.reference - price) * reversionFactor
	}

	change := (drift + p.rng.NormFloat64()*spec.Volatility) * price
	price = Quantize(price+change, spec.TickSize)

	// The process has no floor; a long negative run can in principle walk a
	// price to zero or below. Surface it loudly instead of clamping.
	if price <= 0 {
		p.logger.Warn("price crossed zero",
			slog.String("symbol", symbol),
			slog.Float64("price", price),
		)
	}

	p.prices[symbol] = price
	volume := minTickVolume + p.rng.IntN(maxTickVolume-minTickVolume+1)
	return price, volume, nil
}

// Depth synthesizes an order-book snapshot around the current price: levels
// bids strictly below it and levels asks at or above it, one tick apart,
// each with a uniformly random size in [10,300].
func (p *PriceProcess) Depth(symbol string, levels int) (domain.DepthSnapshot, error) {
	spec, ok := p.specs[symbol]
	if !ok {
		return domain.DepthSnapshot{}, fmt.Errorf("market: depth %s: %w", symbol, domain.ErrUnknownSymbol)
	}

	price := p.prices[symbol]
	snap := domain.DepthSnapshot{
		Symbol: symbol,
		Bids:   make([]domain.DepthLevel, 0, levels),
		Asks:   make([]domain.DepthLevel, 0, levels),
	}
	for i := 1; i <= levels; i++ {
		snap.Bids = append(snap.Bids, domain.DepthLevel{
			Price: round2(price - spec.TickSize*float64(i)),
			Size:  p.depthSize(),
		})
	}
	for i := 0; i < levels; i++ {
		snap.Asks = append(snap.Asks, domain.DepthLevel{
			Price: round2(price + spec.TickSize*float64(i)),
			Size:  p.depthSize(),
		})
	}
	return snap, nil
}

func (p *PriceProcess) depthSize() int {
	return minDepthSize + p.rng.IntN(maxDepthSize-minDepthSize+1)
}

// Quantize snaps a raw price to the nearest multiple of tickSize, rounded to
// two decimal places.
func Quantize(price, tickSize float64) float64 {
	return round2(math.Round(price/tickSize) * tickSize)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
