package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// reportUploadTimeout bounds the shutdown report upload so a slow object
// store cannot hang process exit.
const reportUploadTimeout = 15 * time.Second

// TradeMode runs the engine against the live exchange, with the WS ticker
// stream feeding the price cache when available.
func (a *App) TradeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "entering trade mode")
	return a.runEngine(ctx, deps)
}

// PaperMode runs the engine with simulated execution. Market data still comes
// from the real feed, so paper results track live conditions.
func (a *App) PaperMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "entering paper mode")
	return a.runEngine(ctx, deps)
}

// runEngine drives the engine (and the ticker stream when present) until the
// context is cancelled, then writes the final performance report.
func (a *App) runEngine(ctx context.Context, deps *Dependencies) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return deps.Engine.Run(gctx) })
	if deps.Stream != nil {
		g.Go(func() error { return deps.Stream.Run(gctx) })
	}

	err := g.Wait()

	a.writeFinalReport(deps)

	if err != nil && ctx.Err() != nil {
		// Cancelled shutdown, not a failure.
		return nil
	}
	return err
}

// writeFinalReport renders the performance metrics as JSON and uploads them.
// Failures are logged; a missing report never turns a clean run into an
// error.
func (a *App) writeFinalReport(deps *Dependencies) {
	metrics := deps.Engine.PerformanceMetrics()
	a.logger.Info("final performance",
		slog.Float64("balance", metrics.Balance),
		slog.Float64("total_value", metrics.TotalValue),
		slog.Float64("pnl", metrics.PnL),
		slog.Float64("roi", metrics.ROI),
		slog.Float64("drawdown", metrics.Drawdown),
		slog.Int("trades", metrics.TradeCount),
	)

	if deps.Reports == nil {
		return
	}

	payload, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		a.logger.Error("marshal performance report", slog.Any("error", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), reportUploadTimeout)
	defer cancel()

	name := fmt.Sprintf("performance-%s.json", metrics.GeneratedAt.UTC().Format("20060102T150405Z"))
	if err := deps.Reports.WriteReport(ctx, name, payload); err != nil {
		a.logger.Error("upload performance report", slog.Any("error", err))
		return
	}
	a.logger.Info("performance report uploaded", slog.String("report", name))
}
