package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quadscalp/futsim/internal/domain"
)

// exportBatchLimit caps how many trades one export object may contain.
const exportBatchLimit = 5000

// TradeSource is the narrow read interface the archiver needs: the most
// recent closed trades, newest first. The engine satisfies it directly.
type TradeSource interface {
	RecentTrades(limit int) []domain.Trade
}

// TradeArchiver periodically exports the closed-trade journal as
// newline-delimited JSON objects to S3. Exports are cumulative snapshots of
// the recent journal; each run writes a new object, so a lost run costs
// nothing but one snapshot.
type TradeArchiver struct {
	writer   *Writer
	source   TradeSource
	interval time.Duration
	logger   *slog.Logger

	lastExported int64 // highest trade id written so far
}

// NewTradeArchiver creates a TradeArchiver exporting from source every
// interval.
func NewTradeArchiver(writer *Writer, source TradeSource, interval time.Duration, logger *slog.Logger) *TradeArchiver {
	return &TradeArchiver{
		writer:   writer,
		source:   source,
		interval: interval,
		logger:   logger.With(slog.String("component", "trade_archiver")),
	}
}

// Run exports on a fixed interval until the context is cancelled. A final
// export is attempted on shutdown so trades closed in the last partial
// interval are not lost.
func (a *TradeArchiver) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "trade archiver started",
		slog.Duration("interval", a.interval),
	)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.export(context.WithoutCancel(ctx))
			return ctx.Err()
		case <-ticker.C:
			a.export(ctx)
		}
	}
}

// export writes all trades newer than the last exported id as one JSONL
// object. Failures are logged; the next run retries the same range.
func (a *TradeArchiver) export(ctx context.Context) {
	trades := a.source.RecentTrades(exportBatchLimit)

	var fresh []domain.Trade
	for i := len(trades) - 1; i >= 0; i-- { // oldest first
		if trades[i].ID > a.lastExported {
			fresh = append(fresh, trades[i])
		}
	}
	if len(fresh) == 0 {
		return
	}

	buf, err := marshalJSONL(fresh)
	if err != nil {
		a.logger.Warn("trade export marshal failed", slog.String("error", err.Error()))
		return
	}

	path := exportPath(time.Now().UTC())
	if err := a.upload(ctx, path, buf); err != nil {
		a.logger.Warn("trade export upload failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return
	}

	a.lastExported = fresh[len(fresh)-1].ID
	a.logger.Info("trades exported",
		slog.String("path", path),
		slog.Int("count", len(fresh)),
		slog.Int64("through_id", a.lastExported),
	)
}

func (a *TradeArchiver) upload(ctx context.Context, path string, buf []byte) error {
	if int64(len(buf)) >= minPartSize {
		return a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), minPartSize)
	}
	return a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
}

// exportPath yields object keys like
// exports/trades/2026-09-01/153000_0f4b….jsonl; the uuid suffix keeps
// concurrent or same-second exports from colliding.
func exportPath(now time.Time) string {
	return fmt.Sprintf("exports/trades/%s/%s_%s.jsonl",
		now.Format("2006-01-02"),
		now.Format("150405"),
		uuid.NewString()[:8],
	)
}

// marshalJSONL serialises records as newline-delimited JSON, one compact
// line per record.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
