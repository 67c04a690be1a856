// Package engine runs the trading loop: market data refresh on one interval,
// strategy evaluation on another, with risk gating and authoritative sizing
// between a strategy's proposal and the order that reaches the exchange.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/cryptocore/internal/domain"
	"github.com/alanyoungcy/cryptocore/internal/portfolio"
	"github.com/alanyoungcy/cryptocore/internal/risk"
	"github.com/alanyoungcy/cryptocore/internal/strategy"
)

// Notification event types.
const (
	EventTradeExecuted = "trade_executed"
	EventOrderFailed   = "order_failed"
	EventDrawdown      = "drawdown"
)

// Notifier is the alerting surface the engine emits events through.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// StrategySpec names a strategy to load and its parameters.
type StrategySpec struct {
	Name   string
	Params strategy.Params
}

// Config holds the engine's loop intervals and the strategies to run.
type Config struct {
	UpdateInterval   time.Duration
	StrategyInterval time.Duration
	Strategies       []StrategySpec
}

// Engine wires market data, strategies, risk checks, the exchange adapter,
// and the portfolio into the two periodic loops. Optional collaborators
// (journal, publisher, notifier) may be nil.
type Engine struct {
	cfg       Config
	market    domain.MarketData
	registry  *strategy.Registry
	riskMgr   *risk.Manager
	portfolio *portfolio.Portfolio
	adapter   domain.ExchangeAdapter
	journal   domain.TradeJournal
	publisher domain.TradePublisher
	notifier  Notifier

	strategies []strategy.Strategy
	running    atomic.Bool
	logger     *slog.Logger
}

// New creates an Engine. journal, publisher, and notifier may be nil.
func New(
	cfg Config,
	market domain.MarketData,
	registry *strategy.Registry,
	riskMgr *risk.Manager,
	pf *portfolio.Portfolio,
	adapter domain.ExchangeAdapter,
	journal domain.TradeJournal,
	publisher domain.TradePublisher,
	notifier Notifier,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		cfg:       cfg,
		market:    market,
		registry:  registry,
		riskMgr:   riskMgr,
		portfolio: pf,
		adapter:   adapter,
		journal:   journal,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger.With(slog.String("component", "engine")),
	}
}

// IsRunning reports whether Run is active.
func (e *Engine) IsRunning() bool {
	return e.running.Load()
}

// Run loads the configured strategies and drives the data and strategy loops
// until ctx is cancelled. A strategy that cannot be built or initialized is a
// fatal startup error; everything after startup is isolated per cycle and per
// signal. Run returns domain.ErrEngineRunning when called while active.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return domain.ErrEngineRunning
	}
	defer e.running.Store(false)

	if err := e.loadStrategies(ctx); err != nil {
		return err
	}
	defer e.closeStrategies()

	// Prime the snapshot so the first strategy cycle has data.
	if err := e.market.Refresh(ctx); err != nil {
		e.logger.Warn("initial refresh failed", slog.Any("error", err))
	}

	e.logger.Info("engine started",
		slog.Duration("update_interval", e.cfg.UpdateInterval),
		slog.Duration("strategy_interval", e.cfg.StrategyInterval),
		slog.Int("strategies", len(e.strategies)),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.dataLoop(gctx) })
	g.Go(func() error { return e.strategyLoop(gctx) })

	err := g.Wait()
	e.logger.Info("engine stopped")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// loadStrategies builds and initializes every configured strategy. Any
// failure aborts startup.
func (e *Engine) loadStrategies(ctx context.Context) error {
	e.strategies = e.strategies[:0]
	for _, spec := range e.cfg.Strategies {
		s, err := e.registry.Build(spec.Name, spec.Params)
		if err != nil {
			return fmt.Errorf("engine: load strategies: %w", err)
		}
		if err := s.Init(ctx); err != nil {
			return fmt.Errorf("engine: init strategy %q: %w", spec.Name, err)
		}
		e.strategies = append(e.strategies, s)
	}
	return nil
}

func (e *Engine) closeStrategies() {
	for _, s := range e.strategies {
		if err := s.Close(); err != nil {
			e.logger.Warn("strategy close failed",
				slog.String("strategy", s.Name()),
				slog.Any("error", err),
			)
		}
	}
}

// dataLoop refreshes market data on the update interval and marks the
// portfolio to market after each successful refresh. Refresh errors are
// logged and the loop continues.
func (e *Engine) dataLoop(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := e.market.Refresh(ctx); err != nil {
				e.logger.Warn("data refresh failed", slog.Any("error", err))
				continue
			}
			e.portfolio.MarkToMarket(e.market)
		}
	}
}

// strategyLoop evaluates all strategies on the strategy interval.
func (e *Engine) strategyLoop(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.StrategyInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.runCycle(ctx)
		}
	}
}

// runCycle generates and processes signals from every strategy against one
// snapshot. A strategy error skips only that strategy; a signal failure
// skips only that signal.
func (e *Engine) runCycle(ctx context.Context) {
	snap := e.market.Latest()
	if len(snap) == 0 {
		return
	}

	for _, s := range e.strategies {
		sigs, err := s.GenerateSignals(ctx, snap)
		if err != nil {
			e.logger.Error("strategy evaluation failed",
				slog.String("strategy", s.Name()),
				slog.Any("error", err),
			)
			continue
		}
		for _, sig := range sigs {
			e.processSignal(ctx, sig)
		}
	}
}

// processSignal runs one signal through the risk gates, recomputes the
// authoritative size, submits the order, and commits the fill.
func (e *Engine) processSignal(ctx context.Context, sig domain.Signal) {
	d := e.riskMgr.Evaluate(sig, e.portfolio)
	if !d.OK {
		e.logger.Warn("signal rejected",
			slog.String("signal_id", sig.ID),
			slog.String("strategy", sig.Source),
			slog.String("symbol", sig.Symbol),
			slog.String("gate", d.Gate),
			slog.String("reason", d.Reason),
		)
		if d.Gate == "drawdown" {
			e.notify(ctx, EventDrawdown, "Drawdown circuit breaker",
				fmt.Sprintf("Signal %s %s rejected: %s", sig.Side, sig.Symbol, d.Reason))
		}
		return
	}

	cfg := e.riskMgr.Config()
	stop := risk.StopLoss(sig.Price, sig.Side, cfg.StopLossPct)
	amount := e.riskMgr.PositionSize(e.portfolio.Balance(), cfg.MaxRiskPerTrade, sig.Price, stop)

	if sig.Side == domain.SideSell {
		if held := e.portfolio.Position(sig.Symbol); held < amount {
			amount = held
		}
	}
	if amount <= 0 {
		e.logger.Info("signal sized to zero",
			slog.String("signal_id", sig.ID),
			slog.String("symbol", sig.Symbol),
			slog.String("side", string(sig.Side)),
		)
		return
	}

	fill, err := e.adapter.PlaceOrder(ctx, sig.Symbol, sig.Side, amount, sig.Price)
	if err != nil {
		e.logger.Error("order placement failed",
			slog.String("signal_id", sig.ID),
			slog.String("symbol", sig.Symbol),
			slog.Any("error", err),
		)
		e.notify(ctx, EventOrderFailed, "Order failed",
			fmt.Sprintf("%s %s %.8f: %v", sig.Side, sig.Symbol, amount, err))
		return
	}
	if fill == nil {
		e.logger.Warn("order rejected by exchange",
			slog.String("signal_id", sig.ID),
			slog.String("symbol", sig.Symbol),
		)
		e.notify(ctx, EventOrderFailed, "Order rejected",
			fmt.Sprintf("%s %s %.8f at %.2f", sig.Side, sig.Symbol, amount, sig.Price))
		return
	}

	committed := sig
	committed.Amount = fill.Amount
	committed.Price = fill.Price

	rec, err := e.portfolio.ExecuteTrade(committed)
	if err != nil {
		e.logger.Error("trade commit failed",
			slog.String("signal_id", sig.ID),
			slog.String("symbol", sig.Symbol),
			slog.Any("error", err),
		)
		return
	}

	e.recordTrade(ctx, rec)
	e.notify(ctx, EventTradeExecuted, "Trade executed",
		fmt.Sprintf("%s %.8f %s at %.2f", rec.Side, rec.Amount, rec.Symbol, rec.Price))
}

// recordTrade persists and publishes a committed trade, best effort.
func (e *Engine) recordTrade(ctx context.Context, rec domain.TradeRecord) {
	if e.journal != nil {
		if err := e.journal.RecordTrade(ctx, rec); err != nil {
			e.logger.Warn("trade journal failed",
				slog.String("trade_id", rec.ID),
				slog.Any("error", err),
			)
		}
		if err := e.journal.RecordValue(ctx, rec.Timestamp, e.portfolio.TotalValue(e.market)); err != nil {
			e.logger.Warn("value journal failed", slog.Any("error", err))
		}
	}
	if e.publisher != nil {
		if err := e.publisher.PublishTrade(ctx, rec); err != nil {
			e.logger.Warn("trade publish failed",
				slog.String("trade_id", rec.ID),
				slog.Any("error", err),
			)
		}
	}
}

func (e *Engine) notify(ctx context.Context, event, title, message string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, event, title, message); err != nil {
		e.logger.Warn("notification failed",
			slog.String("event", event),
			slog.Any("error", err),
		)
	}
}

// PerformanceMetrics returns the portfolio's current performance, valued at
// the latest market prices.
func (e *Engine) PerformanceMetrics() domain.PerformanceMetrics {
	return e.portfolio.Metrics(e.market)
}
