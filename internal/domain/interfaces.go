package domain

import (
	"context"
	"time"
)

// MarketData is the boundary to the market-data provider. Refresh is called by
// the engine's data cycle; Latest and LatestPrice read the current snapshot.
type MarketData interface {
	Refresh(ctx context.Context) error
	Latest() Snapshot
	LatestPrice(symbol string) (float64, bool)
}

// PriceOracle is the read-only valuation surface the portfolio and risk layers
// depend on. MarketData implementations satisfy it.
type PriceOracle interface {
	LatestPrice(symbol string) (float64, bool)
}

// ExchangeAdapter places orders at the exchange. A nil Fill with a nil error
// means the order was rejected; the caller treats it as a logged, non-fatal
// failed execution.
type ExchangeAdapter interface {
	PlaceOrder(ctx context.Context, symbol string, side Side, amount, price float64) (*Fill, error)
}

// TradeJournal persists committed trades and portfolio value snapshots.
// Implementations must be append-only.
type TradeJournal interface {
	RecordTrade(ctx context.Context, trade TradeRecord) error
	RecordValue(ctx context.Context, ts time.Time, totalValue float64) error
	ListTrades(ctx context.Context, limit int) ([]TradeRecord, error)
}

// PriceCache shares the latest observed prices with external consumers.
type PriceCache interface {
	SetPrice(ctx context.Context, symbol string, price float64, ts time.Time) error
	GetPrice(ctx context.Context, symbol string) (float64, time.Time, error)
	GetPrices(ctx context.Context, symbols []string) (map[string]float64, error)
}

// TradePublisher broadcasts committed trades to external consumers. Publish
// failures are logged and never block the trading loop.
type TradePublisher interface {
	PublishTrade(ctx context.Context, trade TradeRecord) error
}

// ReportWriter uploads a rendered performance report to durable storage.
type ReportWriter interface {
	WriteReport(ctx context.Context, name string, payload []byte) error
}
