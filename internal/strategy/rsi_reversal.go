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

// RSIReversal buys when the RSI falls below the oversold level and sells when
// it rises above the overbought level.
//
// Recognised params:
//
//   - "rsi_period" (int): Wilder smoothing period, default 14.
//   - "overbought" (float64): SELL threshold, default 70.
//   - "oversold" (float64): BUY threshold, default 30.
//   - "size" (float64): suggested trade size, default 0.01.
type RSIReversal struct {
	period     int
	overbought float64
	oversold   float64
	size       float64
	logger     *slog.Logger
}

// NewRSIReversal creates an RSIReversal strategy from params.
func NewRSIReversal(params Params, logger *slog.Logger) *RSIReversal {
	return &RSIReversal{
		period:     params.Int("rsi_period", 14),
		overbought: params.Float("overbought", 70),
		oversold:   params.Float("oversold", 30),
		size:       params.Float("size", 0.01),
		logger:     logger.With(slog.String("strategy", "rsi_reversal")),
	}
}

func (s *RSIReversal) Name() string { return "rsi_reversal" }

func (s *RSIReversal) Init(_ context.Context) error { return nil }

func (s *RSIReversal) Close() error { return nil }

// GenerateSignals emits at most one signal per symbol per cycle.
func (s *RSIReversal) GenerateSignals(_ context.Context, snap domain.Snapshot) ([]domain.Signal, error) {
	var out []domain.Signal

	for symbol := range snap {
		closes := snap.Closes(symbol)
		rsi := indicator.RSI(closes, s.period)
		if rsi == nil {
			// Indicator warm-up window not met.
			continue
		}

		last := len(rsi) - 1
		var side domain.Side
		switch {
		case rsi[last] < s.oversold:
			side = domain.SideBuy
		case rsi[last] > s.overbought:
			side = domain.SideSell
		default:
			continue
		}

		sig := domain.Signal{
			ID:     uuid.New().String(),
			Source: s.Name(),
			Side:   side,
			Symbol: symbol,
			Price:  closes[len(closes)-1],
			Amount: s.size,
			Metadata: map[string]string{
				"rsi": fmt.Sprintf("%.2f", rsi[last]),
			},
			CreatedAt: time.Now().UTC(),
		}
		out = append(out, sig)

		s.logger.Info("rsi reversal",
			slog.String("symbol", symbol),
			slog.String("side", string(side)),
			slog.Float64("rsi", rsi[last]),
			slog.Float64("price", sig.Price),
		)
	}
	return out, nil
}
