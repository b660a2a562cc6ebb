package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quadscalp/futsim/internal/domain"
)

// BarStore implements domain.BarStore using PostgreSQL.
type BarStore struct {
	pool *pgxpool.Pool
}

// NewBarStore creates a BarStore backed by the given connection pool.
func NewBarStore(pool *pgxpool.Pool) *BarStore {
	return &BarStore{pool: pool}
}

// Insert persists one sealed bar. A bar at the same (symbol, timeframe,
// start) is silently skipped.
func (s *BarStore) Insert(ctx context.Context, b domain.Bar) error {
	const q = `
		INSERT INTO bars (symbol, timeframe, start_ts, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, timeframe, start_ts) DO NOTHING`

	_, err := s.pool.Exec(ctx, q,
		b.Symbol, b.Timeframe, b.Start, b.Open, b.High, b.Low, b.Close, b.Volume,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert bar %s %s: %w", b.Symbol, b.Start, err)
	}
	return nil
}

// ListBySymbol returns up to limit sealed bars for a symbol and timeframe,
// oldest first.
func (s *BarStore) ListBySymbol(ctx context.Context, symbol, timeframe string, limit int) ([]domain.Bar, error) {
	const q = `
		SELECT symbol, timeframe, start_ts, open, high, low, close, volume
		FROM (
			SELECT symbol, timeframe, start_ts, open, high, low, close, volume
			FROM bars
			WHERE symbol = $1 AND timeframe = $2
			ORDER BY start_ts DESC
			LIMIT $3
		) recent
		ORDER BY start_ts ASC`

	rows, err := s.pool.Query(ctx, q, symbol, timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bars %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []domain.Bar
	for rows.Next() {
		var b domain.Bar
		if err := rows.Scan(
			&b.Symbol, &b.Timeframe, &b.Start, &b.Open, &b.High, &b.Low,
			&b.Close, &b.Volume,
		); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// Compile-time interface check.
var _ domain.BarStore = (*BarStore)(nil)
