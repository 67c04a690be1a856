// Package marketdata maintains the engine's market snapshot: per-symbol
// candle series refreshed from an exchange fetcher and served to strategies,
// the portfolio, and the risk layer.
package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/cryptocore/internal/domain"
)

// Fetcher retrieves recent candles for one symbol, oldest first.
type Fetcher interface {
	FetchCandles(ctx context.Context, symbol string, limit int) ([]domain.Candle, error)
}

// Service holds the latest market snapshot. Refresh replaces the per-symbol
// series atomically; readers always see a complete series per symbol, never a
// partially written one.
type Service struct {
	fetcher Fetcher
	symbols []string
	limit   int
	cache   domain.PriceCache

	mu   sync.RWMutex
	snap domain.Snapshot

	logger *slog.Logger
}

// New creates a Service for the given symbols. cache may be nil, in which
// case refreshed prices are not published externally.
func New(fetcher Fetcher, symbols []string, limit int, cache domain.PriceCache, logger *slog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		symbols: symbols,
		limit:   limit,
		cache:   cache,
		snap:    make(domain.Snapshot, len(symbols)),
		logger:  logger.With(slog.String("component", "marketdata")),
	}
}

// Refresh fetches fresh candles for every configured symbol. A failed symbol
// keeps its previous series; Refresh returns an error only when every symbol
// fails, so one flaky feed does not starve the rest.
func (s *Service) Refresh(ctx context.Context) error {
	var firstErr error
	failed := 0

	for _, symbol := range s.symbols {
		candles, err := s.fetcher.FetchCandles(ctx, symbol, s.limit)
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			s.logger.Warn("candle fetch failed",
				slog.String("symbol", symbol),
				slog.Any("error", err),
			)
			continue
		}
		if len(candles) == 0 {
			continue
		}

		s.mu.Lock()
		s.snap[symbol] = candles
		s.mu.Unlock()

		s.publishPrice(ctx, symbol, candles[len(candles)-1])
	}

	if failed == len(s.symbols) && firstErr != nil {
		return fmt.Errorf("marketdata: refresh: %w", firstErr)
	}
	return nil
}

// publishPrice shares the latest close through the price cache, best effort.
func (s *Service) publishPrice(ctx context.Context, symbol string, last domain.Candle) {
	if s.cache == nil {
		return
	}
	ts := last.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	if err := s.cache.SetPrice(ctx, symbol, last.Close, ts); err != nil {
		s.logger.Warn("price cache publish failed",
			slog.String("symbol", symbol),
			slog.Any("error", err),
		)
	}
}

// Latest returns a copy of the current snapshot. The candle slices are shared
// but never mutated after being stored.
func (s *Service) Latest() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(domain.Snapshot, len(s.snap))
	for sym, candles := range s.snap {
		out[sym] = candles
	}
	return out
}

// LatestPrice returns the most recent close for a symbol.
func (s *Service) LatestPrice(symbol string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.LatestPrice(symbol)
}

// Symbols returns the configured symbol list.
func (s *Service) Symbols() []string {
	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out
}

// Compile-time interface checks.
var (
	_ domain.MarketData  = (*Service)(nil)
	_ domain.PriceOracle = (*Service)(nil)
)
