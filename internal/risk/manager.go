// Package risk implements pre-trade gating, position sizing, and drawdown
// control for the trading engine.
package risk

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/alanyoungcy/cryptocore/internal/domain"
)

// minRiskReward is the fixed minimum reward/risk ratio a signal must imply.
const minRiskReward = 2.0

// Config holds the tunable risk parameters. MaxPositionSize is the only field
// mutated after construction, through the audited AdjustPositionSize
// transition.
type Config struct {
	MaxPositionSize float64 // hard cap on held quantity per symbol
	StopLossPct     float64 // fractional distance of the stop from entry
	TakeProfitPct   float64 // fractional distance of the take-profit from entry
	MaxDrawdownPct  float64 // portfolio-wide circuit breaker threshold
	MaxRiskPerTrade float64 // max fraction of balance at risk per trade
}

// PortfolioView is the read-only portfolio surface the risk checks consult.
// The risk manager never mutates portfolio state.
type PortfolioView interface {
	Balance() float64
	Position(symbol string) float64
	ValueHistory() []float64
}

// Decision is the outcome of a risk check: whether the signal passed and, on
// rejection, which gate failed and why.
type Decision struct {
	OK     bool
	Gate   string
	Reason string
}

// TrailingPosition is the state UpdateTrailingStop operates on.
type TrailingPosition struct {
	Side     domain.Side // SideBuy for long, SideSell for short
	StopLoss float64
}

// Manager evaluates proposed trades against the configured limits. It is safe
// for concurrent use; the configuration version increments on every audited
// adjustment.
type Manager struct {
	mu      sync.RWMutex
	cfg     Config
	version int
	logger  *slog.Logger
}

// NewManager creates a Manager with the given limits.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "risk_manager")),
	}
}

// Config returns a copy of the current parameters.
func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Version returns the configuration version, incremented by each adjustment.
func (m *Manager) Version() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// CheckRisk runs the four gates in order and reports whether the signal may
// proceed. The first failing gate short-circuits and is logged with its
// reason. The check reads only the signal, the portfolio view, and the
// current configuration, so identical inputs always yield identical results.
func (m *Manager) CheckRisk(sig domain.Signal, view PortfolioView) bool {
	d := m.Evaluate(sig, view)
	if !d.OK {
		m.logger.Warn("signal rejected",
			slog.String("signal_id", sig.ID),
			slog.String("symbol", sig.Symbol),
			slog.String("side", string(sig.Side)),
			slog.String("gate", d.Gate),
			slog.String("reason", d.Reason),
		)
	}
	return d.OK
}

// Evaluate is CheckRisk without the logging side effect; it returns the full
// decision so callers and tests can assert on the failed gate.
func (m *Manager) Evaluate(sig domain.Signal, view PortfolioView) Decision {
	m.mu.RLock()
	cfg := m.cfg
	m.mu.RUnlock()

	// Gate 1: position size cap.
	if held := view.Position(sig.Symbol); held+sig.Amount > cfg.MaxPositionSize {
		return Decision{
			Gate: "position_size",
			Reason: fmt.Sprintf("held %.8f + amount %.8f exceeds max %.8f",
				held, sig.Amount, cfg.MaxPositionSize),
		}
	}

	// Gate 2: implied reward/risk ratio.
	stop := StopLoss(sig.Price, sig.Side, cfg.StopLossPct)
	take := TakeProfit(sig.Price, sig.Side, cfg.TakeProfitPct)
	riskPer := math.Abs(sig.Price - stop)
	rewardPer := math.Abs(take - sig.Price)
	if riskPer == 0 || rewardPer/riskPer < minRiskReward {
		return Decision{
			Gate:   "risk_reward",
			Reason: fmt.Sprintf("reward/risk %.2f below minimum %.2f", safeRatio(rewardPer, riskPer), minRiskReward),
		}
	}

	// Gate 3: trailing-peak drawdown circuit breaker.
	if dd := maxDrawdown(view.ValueHistory()); dd > cfg.MaxDrawdownPct {
		return Decision{
			Gate:   "drawdown",
			Reason: fmt.Sprintf("max drawdown %.4f exceeds limit %.4f", dd, cfg.MaxDrawdownPct),
		}
	}

	// Gate 4: per-trade risk budget.
	balance := view.Balance()
	if balance > 0 {
		riskAmount := riskPer * sig.Amount
		if pct := riskAmount / balance; pct > cfg.MaxRiskPerTrade {
			return Decision{
				Gate:   "risk_per_trade",
				Reason: fmt.Sprintf("risk %.4f of balance exceeds limit %.4f", pct, cfg.MaxRiskPerTrade),
			}
		}
	}

	return Decision{OK: true}
}

// PositionSize returns the quantity to submit for execution: the risk-budget
// implied size capped at MaxPositionSize. It returns 0 when entry and stop
// coincide.
func (m *Manager) PositionSize(balance, riskPerTrade, entryPrice, stopLoss float64) float64 {
	m.mu.RLock()
	maxSize := m.cfg.MaxPositionSize
	m.mu.RUnlock()

	perUnit := math.Abs(entryPrice - stopLoss)
	if perUnit == 0 {
		return 0
	}
	size := balance * riskPerTrade / perUnit
	return math.Min(size, maxSize)
}

// UpdateTrailingStop ratchets a position's stop toward the current price. For
// a long the stop only moves up, for a short only down; the returned stop is
// never looser than the previous one.
func (m *Manager) UpdateTrailingStop(pos TrailingPosition, currentPrice float64) float64 {
	m.mu.RLock()
	pct := m.cfg.StopLossPct
	m.mu.RUnlock()

	if pos.Side == domain.SideBuy {
		return math.Max(pos.StopLoss, currentPrice*(1-pct))
	}
	return math.Min(pos.StopLoss, currentPrice*(1+pct))
}

// KellyCriterion returns the Kelly fraction for the given win rate and payoff
// asymmetry, clamped to [0, 1]. A win rate of 1 returns the full fraction
// rather than dividing by zero; degenerate average wins return 0.
func (m *Manager) KellyCriterion(winRate, avgWin, avgLoss float64) float64 {
	if avgWin <= 0 {
		return 0
	}
	q := 1 - winRate
	if q <= 0 {
		return 1
	}
	f := winRate/q - avgLoss/(q*avgWin)
	return math.Max(0, math.Min(f, 1))
}

// AdjustPositionSize shrinks MaxPositionSize by 1/(1+volatility). The
// mutation is one-directional for non-negative volatility, bumps the config
// version, and is logged with before/after values.
func (m *Manager) AdjustPositionSize(volatility float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := m.cfg.MaxPositionSize
	m.cfg.MaxPositionSize *= 1 / (1 + volatility)
	m.version++

	m.logger.Info("max position size adjusted for volatility",
		slog.Float64("volatility", volatility),
		slog.Float64("before", before),
		slog.Float64("after", m.cfg.MaxPositionSize),
		slog.Int("version", m.version),
	)
}

// StopLoss returns the stop price implied by the entry for the given side.
func StopLoss(entryPrice float64, side domain.Side, pct float64) float64 {
	if side == domain.SideBuy {
		return entryPrice * (1 - pct)
	}
	return entryPrice * (1 + pct)
}

// TakeProfit returns the take-profit price implied by the entry.
func TakeProfit(entryPrice float64, side domain.Side, pct float64) float64 {
	if side == domain.SideBuy {
		return entryPrice * (1 + pct)
	}
	return entryPrice * (1 - pct)
}

// maxDrawdown computes the largest trailing peak-to-trough decline over the
// value series. Fewer than two points never trip the breaker.
func maxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	peak := values[0]
	var worst float64
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

func safeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
