package risk

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cryptocore/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeView is a canned PortfolioView snapshot.
type fakeView struct {
	balance   float64
	positions map[string]float64
	values    []float64
}

func (v fakeView) Balance() float64 { return v.balance }

func (v fakeView) Position(symbol string) float64 { return v.positions[symbol] }

func (v fakeView) ValueHistory() []float64 { return v.values }

func defaultConfig() Config {
	return Config{
		MaxPositionSize: 1.0,
		StopLossPct:     0.02,
		TakeProfitPct:   0.04,
		MaxDrawdownPct:  0.20,
		MaxRiskPerTrade: 0.02,
	}
}

func signal(side domain.Side, amount, price float64) domain.Signal {
	return domain.Signal{ID: "s1", Source: "test", Side: side, Symbol: "BTC/USDT", Amount: amount, Price: price}
}

func TestCheckRiskAccepts(t *testing.T) {
	m := NewManager(defaultConfig(), testLogger())
	view := fakeView{balance: 100_000, positions: map[string]float64{}}

	// 0.02 BTC @ 30000, 2% stop: risk = 600*0.02 = 12, 0.012% of balance.
	assert.True(t, m.CheckRisk(signal(domain.SideBuy, 0.02, 30_000), view))
}

func TestPositionSizeGate(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxPositionSize = 0.05
	m := NewManager(cfg, testLogger())

	view := fakeView{
		balance:   1_000_000, // large enough that no later gate interferes
		positions: map[string]float64{"BTC/USDT": 0.04},
	}

	d := m.Evaluate(signal(domain.SideBuy, 0.02, 30_000), view)
	assert.False(t, d.OK)
	assert.Equal(t, "position_size", d.Gate)
}

func TestRiskRewardGate(t *testing.T) {
	cfg := defaultConfig()
	cfg.TakeProfitPct = 0.03 // reward/risk = 1.5 < 2.0
	m := NewManager(cfg, testLogger())
	view := fakeView{balance: 100_000, positions: map[string]float64{}}

	d := m.Evaluate(signal(domain.SideBuy, 0.01, 30_000), view)
	assert.False(t, d.OK)
	assert.Equal(t, "risk_reward", d.Gate)

	// SELL direction uses inverted levels but the same ratio.
	d = m.Evaluate(signal(domain.SideSell, 0.01, 30_000), view)
	assert.False(t, d.OK)
	assert.Equal(t, "risk_reward", d.Gate)
}

func TestDrawdownGate(t *testing.T) {
	m := NewManager(defaultConfig(), testLogger())

	view := fakeView{
		balance:   100_000,
		positions: map[string]float64{},
		values:    []float64{10_000, 12_000, 9_000}, // trailing max drawdown 0.25 > 0.20
	}
	d := m.Evaluate(signal(domain.SideBuy, 0.001, 30_000), view)
	assert.False(t, d.OK)
	assert.Equal(t, "drawdown", d.Gate)

	// Recovery does not reset the trailing peak: still tripped.
	view.values = []float64{10_000, 12_000, 9_000, 11_900}
	d = m.Evaluate(signal(domain.SideBuy, 0.001, 30_000), view)
	assert.Equal(t, "drawdown", d.Gate)

	// Short histories never trip the breaker.
	view.values = []float64{9_000}
	assert.True(t, m.Evaluate(signal(domain.SideBuy, 0.001, 30_000), view).OK)
}

func TestRiskPerTradeGate(t *testing.T) {
	m := NewManager(defaultConfig(), testLogger())

	// 0.9 BTC @ 30000 with 2% stop: risk = 600*0.9 = 540 on a 10k balance
	// = 5.4% > 2%.
	view := fakeView{balance: 10_000, positions: map[string]float64{}}
	d := m.Evaluate(signal(domain.SideBuy, 0.9, 30_000), view)
	assert.False(t, d.OK)
	assert.Equal(t, "risk_per_trade", d.Gate)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	m := NewManager(defaultConfig(), testLogger())
	view := fakeView{
		balance:   10_000,
		positions: map[string]float64{"BTC/USDT": 0.5},
		values:    []float64{10_000, 11_000, 9_500},
	}
	sig := signal(domain.SideBuy, 0.9, 30_000)

	first := m.Evaluate(sig, view)
	second := m.Evaluate(sig, view)
	assert.Equal(t, first, second)
}

func TestPositionSize(t *testing.T) {
	m := NewManager(defaultConfig(), testLogger())

	// risk budget 10000*0.02 = 200; per-unit risk 30000-29400 = 600.
	size := m.PositionSize(10_000, 0.02, 30_000, 29_400)
	assert.InDelta(t, 200.0/600.0, size, 1e-9)

	// Risk budget would allow more than the cap: capped.
	size = m.PositionSize(10_000_000, 0.02, 30_000, 29_400)
	assert.InDelta(t, 1.0, size, 1e-9)

	// Entry == stop: no size rather than a division fault.
	assert.Zero(t, m.PositionSize(10_000, 0.02, 30_000, 30_000))
}

func TestTrailingStopMonotonic(t *testing.T) {
	m := NewManager(defaultConfig(), testLogger())

	long := TrailingPosition{Side: domain.SideBuy, StopLoss: 29_000}
	prices := []float64{29_500, 30_500, 30_000, 31_000, 28_000}
	stop := long.StopLoss
	for _, price := range prices {
		next := m.UpdateTrailingStop(TrailingPosition{Side: domain.SideBuy, StopLoss: stop}, price)
		assert.GreaterOrEqual(t, next, stop, "long stop must only ratchet up")
		stop = next
	}

	short := TrailingPosition{Side: domain.SideSell, StopLoss: 31_000}
	stop = short.StopLoss
	for _, price := range prices {
		next := m.UpdateTrailingStop(TrailingPosition{Side: domain.SideSell, StopLoss: stop}, price)
		assert.LessOrEqual(t, next, stop, "short stop must only ratchet down")
		stop = next
	}
}

func TestKellyCriterionClamped(t *testing.T) {
	m := NewManager(defaultConfig(), testLogger())

	testCases := []struct {
		desc                     string
		winRate, avgWin, avgLoss float64
		expected                 float64
	}{
		{"certain win", 1.0, 100, 50, 1},
		{"certain loss", 0.0, 100, 50, 0},
		{"strong edge clamps to 1", 0.9, 100, 10, 1},
		{"negative edge clamps to 0", 0.3, 50, 100, 0},
		{"degenerate avg win", 0.6, 0, 50, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			f := m.KellyCriterion(tc.winRate, tc.avgWin, tc.avgLoss)
			assert.GreaterOrEqual(t, f, 0.0)
			assert.LessOrEqual(t, f, 1.0)
			assert.InDelta(t, tc.expected, f, 1e-9)
		})
	}

	// 60% win rate, 2:1 payoff: f = 0.6/0.4 - 50/(0.4*100) = 0.25.
	f := m.KellyCriterion(0.6, 100, 50)
	assert.InDelta(t, 0.25, f, 1e-9)
}

func TestAdjustPositionSize(t *testing.T) {
	m := NewManager(defaultConfig(), testLogger())
	require.Equal(t, 0, m.Version())

	before := m.Config().MaxPositionSize
	m.AdjustPositionSize(0.5)
	after := m.Config().MaxPositionSize

	assert.InDelta(t, before/1.5, after, 1e-9)
	assert.Equal(t, 1, m.Version())

	// Repeated adjustments keep shrinking.
	m.AdjustPositionSize(0.5)
	assert.Less(t, m.Config().MaxPositionSize, after)
	assert.Equal(t, 2, m.Version())
}
