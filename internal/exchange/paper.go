// Package exchange provides order-execution adapters. Paper fills orders
// locally for simulation; the binance subpackage talks to the real venue.
package exchange

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/cryptocore/internal/domain"
)

// Paper is a simulated exchange adapter. Every order fills immediately at
// the requested price with a configurable fee, charged in quote currency.
type Paper struct {
	feeRate float64
	logger  *slog.Logger
}

// NewPaper creates a Paper adapter. feeRate is the taker fee as a fraction
// of notional, e.g. 0.001 for 10 bps.
func NewPaper(feeRate float64, logger *slog.Logger) *Paper {
	if feeRate < 0 {
		feeRate = 0
	}
	return &Paper{
		feeRate: feeRate,
		logger:  logger.With(slog.String("component", "paper_exchange")),
	}
}

// PlaceOrder fills the order at the requested price. Orders with a
// non-positive amount or price are rejected (nil fill, nil error).
func (p *Paper) PlaceOrder(_ context.Context, symbol string, side domain.Side, amount, price float64) (*domain.Fill, error) {
	if amount <= 0 || price <= 0 {
		p.logger.Warn("order rejected",
			slog.String("symbol", symbol),
			slog.String("side", string(side)),
			slog.Float64("amount", amount),
			slog.Float64("price", price),
		)
		return nil, nil
	}

	fill := &domain.Fill{
		OrderID:   uuid.New().String(),
		Symbol:    symbol,
		Side:      side,
		Amount:    amount,
		Price:     price,
		FeeQuote:  amount * price * p.feeRate,
		Timestamp: time.Now().UTC(),
	}

	p.logger.Info("paper fill",
		slog.String("order_id", fill.OrderID),
		slog.String("symbol", symbol),
		slog.String("side", string(side)),
		slog.Float64("amount", amount),
		slog.Float64("price", price),
		slog.Float64("fee", fill.FeeQuote),
	)
	return fill, nil
}

// Compile-time interface check.
var _ domain.ExchangeAdapter = (*Paper)(nil)
