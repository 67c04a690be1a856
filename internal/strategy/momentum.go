package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/cryptocore/internal/domain"
	"github.com/alanyoungcy/cryptocore/internal/indicator"
)

// Momentum emits a BUY when the MACD line crosses above its signal line and a
// SELL on the opposite crossover, in both cases only while the ADX trend
// filter reads a strong enough trend.
//
// Recognised params:
//
//   - "macd_fast" (int): fast EMA span, default 12.
//   - "macd_slow" (int): slow EMA span, default 26.
//   - "macd_signal" (int): signal EMA span, default 9.
//   - "adx_period" (int): ADX smoothing period, default 14.
//   - "adx_threshold" (float64): minimum ADX for a signal, default 25.
//   - "size" (float64): suggested trade size, default 0.01. The engine
//     recomputes the authoritative size before execution.
type Momentum struct {
	fast, slow, signalSpan int
	adxPeriod              int
	adxThreshold           float64
	size                   float64
	logger                 *slog.Logger
}

// NewMomentum creates a Momentum strategy from params.
func NewMomentum(params Params, logger *slog.Logger) *Momentum {
	return &Momentum{
		fast:         params.Int("macd_fast", 12),
		slow:         params.Int("macd_slow", 26),
		signalSpan:   params.Int("macd_signal", 9),
		adxPeriod:    params.Int("adx_period", 14),
		adxThreshold: params.Float("adx_threshold", 25),
		size:         params.Float("size", 0.01),
		logger:       logger.With(slog.String("strategy", "momentum")),
	}
}

// Name returns the strategy identifier.
func (s *Momentum) Name() string { return "momentum" }

// Init performs one-time setup. For Momentum this is a no-op.
func (s *Momentum) Init(_ context.Context) error { return nil }

// Close releases resources. For Momentum this is a no-op.
func (s *Momentum) Close() error { return nil }

// warmup is the minimum candle count before signals can be produced.
func (s *Momentum) warmup() int {
	macdNeed := s.slow + s.signalSpan
	adxNeed := 2*s.adxPeriod + 1
	if adxNeed > macdNeed {
		return adxNeed
	}
	return macdNeed
}

// GenerateSignals scans every symbol in the snapshot for a fresh MACD
// crossover confirmed by the trend filter.
func (s *Momentum) GenerateSignals(_ context.Context, snap domain.Snapshot) ([]domain.Signal, error) {
	var out []domain.Signal

	for symbol, candles := range snap {
		if len(candles) < s.warmup() {
			continue
		}

		closes := make([]float64, len(candles))
		highs := make([]float64, len(candles))
		lows := make([]float64, len(candles))
		for i, c := range candles {
			closes[i] = c.Close
			highs[i] = c.High
			lows[i] = c.Low
		}

		macd := indicator.MACD(closes, s.fast, s.slow, s.signalSpan)
		if !macd.Ready() {
			continue
		}
		adx := indicator.ADX(highs, lows, closes, s.adxPeriod)
		if adx == nil {
			continue
		}

		last := len(closes) - 1
		if adx[last] <= s.adxThreshold {
			continue
		}

		crossedUp := macd.MACD[last] > macd.Signal[last] && macd.MACD[last-1] <= macd.Signal[last-1]
		crossedDown := macd.MACD[last] < macd.Signal[last] && macd.MACD[last-1] >= macd.Signal[last-1]

		var side domain.Side
		switch {
		case crossedUp:
			side = domain.SideBuy
		case crossedDown:
			side = domain.SideSell
		default:
			continue
		}

		sig := domain.Signal{
			ID:     uuid.New().String(),
			Source: s.Name(),
			Side:   side,
			Symbol: symbol,
			Price:  closes[last],
			Amount: s.size,
			Metadata: map[string]string{
				"macd":   fmt.Sprintf("%.6f", macd.MACD[last]),
				"signal": fmt.Sprintf("%.6f", macd.Signal[last]),
				"adx":    fmt.Sprintf("%.2f", adx[last]),
			},
			CreatedAt: time.Now().UTC(),
		}
		out = append(out, sig)

		s.logger.Info("momentum crossover",
			slog.String("symbol", symbol),
			slog.String("side", string(side)),
			slog.Float64("price", sig.Price),
			slog.Float64("adx", adx[last]),
		)
	}
	return out, nil
}
