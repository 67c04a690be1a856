package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/cryptocore/internal/domain"
)

// JournalStore implements domain.TradeJournal using PostgreSQL. Both tables
// are append-only; nothing in this store updates or deletes rows.
type JournalStore struct {
	pool *pgxpool.Pool
}

// NewJournalStore creates a JournalStore backed by the given connection pool.
func NewJournalStore(pool *pgxpool.Pool) *JournalStore {
	return &JournalStore{pool: pool}
}

// RecordTrade persists one committed trade. Replays of an already-recorded
// trade ID are silently skipped via ON CONFLICT DO NOTHING.
func (s *JournalStore) RecordTrade(ctx context.Context, trade domain.TradeRecord) error {
	const query = `
		INSERT INTO trades (id, ts, side, symbol, amount, price, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		trade.ID, trade.Timestamp, string(trade.Side),
		trade.Symbol, trade.Amount, trade.Price, trade.Source,
	)
	if err != nil {
		return fmt.Errorf("postgres: record trade %s: %w", trade.ID, err)
	}
	return nil
}

// RecordValue appends one portfolio value snapshot.
func (s *JournalStore) RecordValue(ctx context.Context, ts time.Time, totalValue float64) error {
	const query = `INSERT INTO portfolio_values (ts, total_value) VALUES ($1, $2)`

	if _, err := s.pool.Exec(ctx, query, ts, totalValue); err != nil {
		return fmt.Errorf("postgres: record value: %w", err)
	}
	return nil
}

// ListTrades returns the most recent trades, newest first. limit <= 0 means
// no limit.
func (s *JournalStore) ListTrades(ctx context.Context, limit int) ([]domain.TradeRecord, error) {
	query := `SELECT id, ts, side, symbol, amount, price, source FROM trades ORDER BY ts DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades: %w", err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades: %w", err)
	}
	return trades, nil
}

func scanTradeRows(rows pgx.Rows) ([]domain.TradeRecord, error) {
	var trades []domain.TradeRecord
	for rows.Next() {
		var (
			t    domain.TradeRecord
			side string
		)
		if err := rows.Scan(&t.ID, &t.Timestamp, &side, &t.Symbol, &t.Amount, &t.Price, &t.Source); err != nil {
			return nil, err
		}
		t.Side = domain.Side(side)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Compile-time interface check.
var _ domain.TradeJournal = (*JournalStore)(nil)
