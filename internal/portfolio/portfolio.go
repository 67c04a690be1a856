// Package portfolio holds the authoritative balance, position, and history
// state for a trading run. All mutation goes through ExecuteTrade and
// MarkToMarket; every other method is a read-only view.
package portfolio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/cryptocore/internal/domain"
)

// Portfolio is the single source of truth for exposure. It is safe for
// concurrent use; each trade commit (validate, balance, position, histories)
// is applied under one lock so no partial state is ever observable.
type Portfolio struct {
	mu             sync.RWMutex
	initialBalance float64
	balance        float64
	positions      map[string]float64
	lastPrice      map[string]float64 // last committed trade price per symbol
	tradeHistory   []domain.TradeRecord
	valueHistory   []float64
	logger         *slog.Logger
}

// New creates a Portfolio with the given starting cash balance.
func New(initialBalance float64, logger *slog.Logger) *Portfolio {
	return &Portfolio{
		initialBalance: initialBalance,
		balance:        initialBalance,
		positions:      make(map[string]float64),
		lastPrice:      make(map[string]float64),
		logger:         logger.With(slog.String("component", "portfolio")),
	}
}

// ExecuteTrade validates and commits a signal as a trade. BUY requires
// amount*price <= balance (domain.ErrInsufficientFunds otherwise); SELL
// requires amount <= held quantity (domain.ErrInsufficientPosition). On
// success the balance, position, trade history, and value history are updated
// as one transition and the committed record is returned. On failure no state
// changes.
func (p *Portfolio) ExecuteTrade(sig domain.Signal) (domain.TradeRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cost := sig.Amount * sig.Price

	// Validate before touching any state.
	switch sig.Side {
	case domain.SideBuy:
		if cost > p.balance {
			return domain.TradeRecord{}, fmt.Errorf(
				"portfolio: buy %s %.8f@%.2f needs %.2f, have %.2f: %w",
				sig.Symbol, sig.Amount, sig.Price, cost, p.balance, domain.ErrInsufficientFunds,
			)
		}
	case domain.SideSell:
		if held := p.positions[sig.Symbol]; sig.Amount > held {
			return domain.TradeRecord{}, fmt.Errorf(
				"portfolio: sell %s %.8f exceeds held %.8f: %w",
				sig.Symbol, sig.Amount, held, domain.ErrInsufficientPosition,
			)
		}
	default:
		return domain.TradeRecord{}, fmt.Errorf("portfolio: unknown signal side %q", sig.Side)
	}

	// Commit.
	if sig.Side == domain.SideBuy {
		p.balance -= cost
		p.positions[sig.Symbol] += sig.Amount
	} else {
		p.balance += cost
		p.positions[sig.Symbol] -= sig.Amount
		if p.positions[sig.Symbol] == 0 {
			delete(p.positions, sig.Symbol)
		}
	}
	p.lastPrice[sig.Symbol] = sig.Price

	rec := domain.TradeRecord{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Side:      sig.Side,
		Symbol:    sig.Symbol,
		Amount:    sig.Amount,
		Price:     sig.Price,
		Source:    sig.Source,
	}
	p.tradeHistory = append(p.tradeHistory, rec)
	p.valueHistory = append(p.valueHistory, p.totalValueLocked())

	p.logger.Info("trade committed",
		slog.String("trade_id", rec.ID),
		slog.String("side", string(rec.Side)),
		slog.String("symbol", rec.Symbol),
		slog.Float64("amount", rec.Amount),
		slog.Float64("price", rec.Price),
		slog.Float64("balance", p.balance),
	)
	return rec, nil
}

// totalValueLocked marks positions at the last committed trade price. Symbols
// with no recorded price contribute zero. Caller must hold the lock.
func (p *Portfolio) totalValueLocked() float64 {
	total := p.balance
	for symbol, qty := range p.positions {
		total += qty * p.lastPrice[symbol]
	}
	return total
}

// TotalValue returns balance plus the mark-to-market value of all positions
// at the oracle's latest prices. A symbol the oracle has no price for
// contributes zero rather than failing the valuation.
func (p *Portfolio) TotalValue(oracle domain.PriceOracle) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	total := p.balance
	for symbol, qty := range p.positions {
		if price, ok := oracle.LatestPrice(symbol); ok {
			total += qty * price
		}
	}
	return total
}

// MarkToMarket revalues the portfolio at the oracle's prices and appends one
// point to the value history. It returns the new total value.
func (p *Portfolio) MarkToMarket(oracle domain.PriceOracle) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := p.balance
	for symbol, qty := range p.positions {
		if price, ok := oracle.LatestPrice(symbol); ok {
			total += qty * price
			p.lastPrice[symbol] = price
		}
	}
	p.valueHistory = append(p.valueHistory, total)
	return total
}

// Drawdown returns the fractional decline of the latest total value from the
// historical peak. It returns 0 for an empty value history.
func (p *Portfolio) Drawdown() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.drawdownLocked()
}

// Returns computes the period-over-period fractional change of the value
// history, skipping the undefined first delta. It returns an empty slice when
// fewer than two points exist.
func (p *Portfolio) Returns() []float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.valueHistory) < 2 {
		return []float64{}
	}
	out := make([]float64, 0, len(p.valueHistory)-1)
	for i := 1; i < len(p.valueHistory); i++ {
		prev := p.valueHistory[i-1]
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (p.valueHistory[i]-prev)/prev)
	}
	return out
}

// Balance returns the current quote-currency cash balance.
func (p *Portfolio) Balance() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.balance
}

// Position returns the held quantity for a symbol, zero when none.
func (p *Portfolio) Position(symbol string) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.positions[symbol]
}

// Positions returns a copy of the position map.
func (p *Portfolio) Positions() map[string]float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]float64, len(p.positions))
	for k, v := range p.positions {
		out[k] = v
	}
	return out
}

// TradeHistory returns a copy of the committed trade records in commit order.
func (p *Portfolio) TradeHistory() []domain.TradeRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]domain.TradeRecord, len(p.tradeHistory))
	copy(out, p.tradeHistory)
	return out
}

// ValueHistory returns a copy of the appended total-value points.
func (p *Portfolio) ValueHistory() []float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]float64, len(p.valueHistory))
	copy(out, p.valueHistory)
	return out
}

// Metrics summarises the portfolio for external presentation.
func (p *Portfolio) Metrics(oracle domain.PriceOracle) domain.PerformanceMetrics {
	total := p.TotalValue(oracle)

	p.mu.RLock()
	defer p.mu.RUnlock()

	pnl := total - p.initialBalance
	roi := 0.0
	if p.initialBalance > 0 {
		roi = pnl / p.initialBalance
	}
	return domain.PerformanceMetrics{
		InitialBalance: p.initialBalance,
		Balance:        p.balance,
		TotalValue:     total,
		PnL:            pnl,
		ROI:            roi,
		Drawdown:       p.drawdownLocked(),
		TradeCount:     len(p.tradeHistory),
		GeneratedAt:    time.Now().UTC(),
	}
}

func (p *Portfolio) drawdownLocked() float64 {
	if len(p.valueHistory) == 0 {
		return 0
	}
	peak := p.valueHistory[0]
	for _, v := range p.valueHistory[1:] {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		return 0
	}
	return (peak - p.valueHistory[len(p.valueHistory)-1]) / peak
}
