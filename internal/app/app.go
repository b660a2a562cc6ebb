// Package app provides the top-level application lifecycle for the futures
// simulator. It wires together the price process, bar aggregation, order
// ledger, broadcaster, optional persistence backends, and the HTTP/WebSocket
// server, and runs them until the context is cancelled.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	s3blob "github.com/quadscalp/futsim/internal/blob/s3"
	"github.com/quadscalp/futsim/internal/config"
	"github.com/quadscalp/futsim/internal/domain"
	"github.com/quadscalp/futsim/internal/engine"
	"github.com/quadscalp/futsim/internal/ledger"
	"github.com/quadscalp/futsim/internal/market"
	"github.com/quadscalp/futsim/internal/server"
	"github.com/quadscalp/futsim/internal/server/handler"
	"github.com/quadscalp/futsim/internal/server/ws"
	"github.com/quadscalp/futsim/internal/stream"
	"golang.org/x/sync/errgroup"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, assembles the
// simulation engine and the API server, and blocks until the context is
// cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.cfg.Mode),
		slog.String("log_level", a.cfg.LogLevel),
		slog.Int("symbols", len(a.cfg.Symbols)),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	// --- Simulation core ---
	specs := make([]domain.SymbolSpec, 0, len(a.cfg.Symbols))
	for _, s := range a.cfg.Symbols {
		specs = append(specs, domain.SymbolSpec{
			Symbol:       s.Symbol,
			TickSize:     s.TickSize,
			PointValue:   s.PointValue,
			Volatility:   s.Volatility,
			InitialPrice: s.InitialPrice,
		})
	}

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	priceProc := market.NewPriceProcess(specs, a.cfg.Market.Benchmark, rng, a.logger)
	bars := market.NewBarAggregator(specs, a.cfg.Market.BarInterval.Duration, a.cfg.Market.BarHistory, time.Now().UTC())
	led := ledger.New(priceProc, ledger.Config{
		StartingBalance:   a.cfg.Account.StartingBalance,
		MarginPerContract: a.cfg.Account.MarginPerContract,
	})
	broadcaster := stream.NewBroadcaster(a.logger)

	eng := engine.New(
		engine.Config{
			TickInterval: a.cfg.Market.TickInterval.Duration,
			DepthLevels:  a.cfg.Market.DepthLevels,
			Demo:         true,
		},
		priceProc, bars, led, broadcaster,
		deps.TradeStore, deps.BarStore, deps.PriceCache,
		a.logger,
	)

	g, ctx := errgroup.WithContext(ctx)

	// Market coordinator loop.
	g.Go(func() error {
		return eng.Run(ctx)
	})

	// Redis event mirror: tap the broadcaster and republish on pub/sub.
	if deps.EventMirror != nil {
		broadcaster.Subscribe(deps.EventMirror)
		g.Go(func() error {
			return deps.EventMirror.Run(ctx)
		})
	}

	// S3 trade journal exporter.
	if deps.BlobWriter != nil {
		archiver := s3blob.NewTradeArchiver(deps.BlobWriter, eng, deps.ExportInterval, a.logger)
		g.Go(func() error {
			return archiver.Run(ctx)
		})
	}

	// --- HTTP + WebSocket server ---
	hub := ws.NewHub(broadcaster, a.logger)
	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(a.cfg.Mode, Version, a.logger),
		Account:   handler.NewAccountHandler(eng, a.logger),
		Positions: handler.NewPositionHandler(eng, a.logger),
		Orders:    handler.NewOrderHandler(eng, a.logger),
		Trades:    handler.NewTradeHandler(eng, a.logger),
		Markets:   handler.NewMarketHandler(eng, a.logger),
	}
	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, hub, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
