package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quadscalp/futsim/internal/domain"
)

// TradeStore implements domain.TradeStore using PostgreSQL. The trades table
// is append-only; re-inserting the same trade id is a no-op.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a TradeStore backed by the given connection pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

const tradeSelectCols = `id, symbol, side, qty, entry_price, exit_price, pnl,
	entry_time, exit_time, exit_type`

// Insert appends one closed trade. Duplicate ids are silently skipped via
// ON CONFLICT DO NOTHING.
func (s *TradeStore) Insert(ctx context.Context, t domain.Trade) error {
	const q = `
		INSERT INTO trades (id, symbol, side, qty, entry_price, exit_price, pnl,
			entry_time, exit_time, exit_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, q,
		t.ID, t.Symbol, string(t.Side), t.Qty, t.EntryPrice, t.ExitPrice,
		t.PnL, t.EntryTime, t.ExitTime, string(t.ExitReason),
	)
	if err != nil {
		return fmt.Errorf("postgres: insert trade %d: %w", t.ID, err)
	}
	return nil
}

// ListRecent returns up to limit trades ordered by exit time, most recent
// first.
func (s *TradeStore) ListRecent(ctx context.Context, limit int) ([]domain.Trade, error) {
	q := fmt.Sprintf(`SELECT %s FROM trades ORDER BY exit_time DESC LIMIT $1`, tradeSelectCols)

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent trades: %w", err)
	}
	defer rows.Close()

	return scanTradeRows(rows)
}

func scanTradeRows(rows pgx.Rows) ([]domain.Trade, error) {
	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var side, reason string
		if err := rows.Scan(
			&t.ID, &t.Symbol, &side, &t.Qty, &t.EntryPrice, &t.ExitPrice,
			&t.PnL, &t.EntryTime, &t.ExitTime, &reason,
		); err != nil {
			return nil, err
		}
		t.Side = domain.PositionSide(side)
		t.ExitReason = domain.ExitReason(reason)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Compile-time interface check.
var _ domain.TradeStore = (*TradeStore)(nil)
