package portfolio

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

type staticOracle map[string]float64

func (o staticOracle) LatestPrice(symbol string) (float64, bool) {
	p, ok := o[symbol]
	return p, ok
}

func buySignal(symbol string, amount, price float64) domain.Signal {
	return domain.Signal{ID: "t", Source: "test", Side: domain.SideBuy, Symbol: symbol, Amount: amount, Price: price}
}

func sellSignal(symbol string, amount, price float64) domain.Signal {
	return domain.Signal{ID: "t", Source: "test", Side: domain.SideSell, Symbol: symbol, Amount: amount, Price: price}
}

func TestExecuteTradeBuyCommits(t *testing.T) {
	p := New(10_000, testLogger())

	rec, err := p.ExecuteTrade(buySignal("BTC/USDT", 0.1, 30_000))
	require.NoError(t, err)

	assert.Equal(t, domain.SideBuy, rec.Side)
	assert.InDelta(t, 7_000, p.Balance(), 1e-9)
	assert.InDelta(t, 0.1, p.Position("BTC/USDT"), 1e-9)
	assert.Len(t, p.TradeHistory(), 1)
	assert.Len(t, p.ValueHistory(), 1)

	// Value history marks the position at the trade price.
	assert.InDelta(t, 10_000, p.ValueHistory()[0], 1e-9)
}

func TestExecuteTradeInsufficientFunds(t *testing.T) {
	p := New(100, testLogger())

	_, err := p.ExecuteTrade(buySignal("BTC/USDT", 1, 30_000))
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// Rejected trade leaves state untouched.
	assert.InDelta(t, 100, p.Balance(), 1e-9)
	assert.Zero(t, p.Position("BTC/USDT"))
	assert.Empty(t, p.TradeHistory())
	assert.Empty(t, p.ValueHistory())
}

func TestExecuteTradeInsufficientPosition(t *testing.T) {
	p := New(10_000, testLogger())
	_, err := p.ExecuteTrade(buySignal("BTC/USDT", 0.1, 30_000))
	require.NoError(t, err)

	_, err = p.ExecuteTrade(sellSignal("BTC/USDT", 0.2, 30_000))
	require.ErrorIs(t, err, domain.ErrInsufficientPosition)

	assert.InDelta(t, 7_000, p.Balance(), 1e-9)
	assert.InDelta(t, 0.1, p.Position("BTC/USDT"), 1e-9)
	assert.Len(t, p.TradeHistory(), 1)
	assert.Len(t, p.ValueHistory(), 1)
}

func TestExecuteTradeSellUnknownSymbol(t *testing.T) {
	p := New(1_000, testLogger())
	_, err := p.ExecuteTrade(sellSignal("ETH/USDT", 0.5, 2_000))
	require.ErrorIs(t, err, domain.ErrInsufficientPosition)
}

func TestBalanceNeverNegative(t *testing.T) {
	p := New(1_000, testLogger())

	sides := []domain.Signal{
		buySignal("BTC/USDT", 0.01, 50_000),  // 500
		buySignal("ETH/USDT", 0.2, 2_000),    // 400
		buySignal("BTC/USDT", 0.01, 50_000),  // rejected: needs 500, have 100
		sellSignal("ETH/USDT", 0.2, 2_100),   // +420
		sellSignal("BTC/USDT", 0.05, 50_000), // rejected: held 0.01
		sellSignal("BTC/USDT", 0.01, 49_000), // +490
	}
	for _, sig := range sides {
		_, _ = p.ExecuteTrade(sig)
	}
	assert.GreaterOrEqual(t, p.Balance(), 0.0)
	for _, qty := range p.Positions() {
		assert.GreaterOrEqual(t, qty, 0.0)
	}
}

func TestSellClearsPosition(t *testing.T) {
	p := New(10_000, testLogger())
	_, err := p.ExecuteTrade(buySignal("BTC/USDT", 0.1, 30_000))
	require.NoError(t, err)
	_, err = p.ExecuteTrade(sellSignal("BTC/USDT", 0.1, 31_000))
	require.NoError(t, err)

	assert.Zero(t, p.Position("BTC/USDT"))
	assert.Empty(t, p.Positions())
	assert.InDelta(t, 10_100, p.Balance(), 1e-9)
}

func TestTotalValueMissingPriceContributesZero(t *testing.T) {
	p := New(10_000, testLogger())
	_, err := p.ExecuteTrade(buySignal("BTC/USDT", 0.1, 30_000))
	require.NoError(t, err)

	// No price for BTC/USDT: balance-only valuation.
	assert.InDelta(t, 7_000, p.TotalValue(staticOracle{}), 1e-9)

	// With a price the position is marked to market.
	assert.InDelta(t, 7_000+0.1*32_000, p.TotalValue(staticOracle{"BTC/USDT": 32_000}), 1e-9)
}

func TestDrawdownEmptyAndSinglePoint(t *testing.T) {
	p := New(10_000, testLogger())
	assert.Zero(t, p.Drawdown())

	p.MarkToMarket(staticOracle{})
	assert.Zero(t, p.Drawdown())
}

func TestDrawdownPeakToLatest(t *testing.T) {
	p := New(10_000, testLogger())

	// Build value_history = [10000, 12000, 9000] through mark-to-market on a
	// held position.
	_, err := p.ExecuteTrade(buySignal("BTC/USDT", 1, 5_000)) // value 10000
	require.NoError(t, err)
	p.MarkToMarket(staticOracle{"BTC/USDT": 7_000}) // value 12000
	p.MarkToMarket(staticOracle{"BTC/USDT": 4_000}) // value 9000

	require.Equal(t, []float64{10_000, 12_000, 9_000}, p.ValueHistory())
	assert.InDelta(t, 0.25, p.Drawdown(), 1e-9)
}

func TestReturns(t *testing.T) {
	p := New(10_000, testLogger())
	assert.Empty(t, p.Returns())

	p.MarkToMarket(staticOracle{})
	assert.Empty(t, p.Returns())

	_, err := p.ExecuteTrade(buySignal("BTC/USDT", 1, 5_000))
	require.NoError(t, err)
	p.MarkToMarket(staticOracle{"BTC/USDT": 5_500}) // +5%

	rets := p.Returns()
	require.Len(t, rets, 2)
	assert.InDelta(t, 0.0, rets[0], 1e-9)
	assert.InDelta(t, 0.05, rets[1], 1e-9)
}

func TestMetrics(t *testing.T) {
	p := New(10_000, testLogger())
	_, err := p.ExecuteTrade(buySignal("BTC/USDT", 0.1, 30_000))
	require.NoError(t, err)

	m := p.Metrics(staticOracle{"BTC/USDT": 33_000})
	assert.InDelta(t, 10_000, m.InitialBalance, 1e-9)
	assert.InDelta(t, 7_000, m.Balance, 1e-9)
	assert.InDelta(t, 10_300, m.TotalValue, 1e-9)
	assert.InDelta(t, 300, m.PnL, 1e-9)
	assert.InDelta(t, 0.03, m.ROI, 1e-9)
	assert.Equal(t, 1, m.TradeCount)
}
