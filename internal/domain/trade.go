package domain

import "time"

// Fill is the result of an accepted order at the exchange. A nil *Fill with a
// nil error from an adapter means the order was rejected without a transport
// failure.
type Fill struct {
	OrderID   string
	Symbol    string
	Side      Side
	Amount    float64
	Price     float64
	FeeQuote  float64 // fee charged in quote currency
	Timestamp time.Time
}

// TradeRecord is one committed portfolio trade. Records are append-only and
// ordered by commit time.
type TradeRecord struct {
	ID        string
	Timestamp time.Time
	Side      Side
	Symbol    string
	Amount    float64
	Price     float64
	Source    string // originating strategy
}

// Notional returns the quote-currency value moved by the trade.
func (t TradeRecord) Notional() float64 {
	return t.Price * t.Amount
}

// PerformanceMetrics is the portfolio-derived summary surfaced to external
// presentation layers (CLI, report file).
type PerformanceMetrics struct {
	InitialBalance float64
	Balance        float64
	TotalValue     float64
	PnL            float64
	ROI            float64 // fractional, 0.05 == 5%
	Drawdown       float64 // fractional decline from peak
	TradeCount     int
	GeneratedAt    time.Time
}
