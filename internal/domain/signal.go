package domain

import "time"

// Side indicates the direction of a proposed or executed trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Signal is a proposed trade emitted by a strategy. It is consumed by the
// engine within a single evaluation cycle and never stored.
type Signal struct {
	ID        string // UUID for tracing through logs
	Source    string // strategy name
	Side      Side
	Symbol    string // e.g. "BTC/USDT"
	Price     float64
	Amount    float64 // strategy-suggested size; the engine recomputes before execution
	Metadata  map[string]string
	CreatedAt time.Time
}

// Notional returns the quote-currency value of the signal at its price.
func (s Signal) Notional() float64 {
	return s.Price * s.Amount
}
