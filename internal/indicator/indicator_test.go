package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	out := EMA(values, 2)
	require.Len(t, out, 5)

	// alpha = 2/3: seed 1, then 2/3*v + 1/3*prev.
	assert.InDelta(t, 1.0, out[0], 1e-9)
	assert.InDelta(t, 2.0/3*2+1.0/3*1, out[1], 1e-9)

	// EMA of a constant series is the constant.
	flat := EMA([]float64{7, 7, 7, 7}, 3)
	for _, v := range flat {
		assert.InDelta(t, 7.0, v, 1e-9)
	}

	assert.Nil(t, EMA(nil, 3))
	assert.Nil(t, EMA(values, 0))
}

func TestRSIBounds(t *testing.T) {
	// Monotonically rising closes: RSI pins to 100.
	rising := make([]float64, 30)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}
	out := RSI(rising, 14)
	require.NotNil(t, out)
	assert.InDelta(t, 100.0, out[len(out)-1], 1e-9)

	// Monotonically falling closes: RSI approaches 0.
	falling := make([]float64, 30)
	for i := range falling {
		falling[i] = 100 - float64(i)
	}
	out = RSI(falling, 14)
	require.NotNil(t, out)
	assert.Less(t, out[len(out)-1], 1.0)

	for _, v := range out {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestRSIWarmup(t *testing.T) {
	short := []float64{1, 2, 3}
	assert.Nil(t, RSI(short, 14))
}

func TestMACDCrossoverShape(t *testing.T) {
	// A flat series followed by a sharp ramp produces a MACD line that
	// crosses above its signal line during the ramp.
	closes := make([]float64, 60)
	for i := range closes {
		if i < 40 {
			closes[i] = 100
		} else {
			closes[i] = 100 + 2*float64(i-39)
		}
	}
	res := MACD(closes, 12, 26, 9)
	require.True(t, res.Ready())
	require.Len(t, res.MACD, 60)

	last := len(closes) - 1
	assert.Greater(t, res.MACD[last], res.Signal[last])
	assert.InDelta(t, res.MACD[last]-res.Signal[last], res.Histogram[last], 1e-9)

	// Too little history: not ready.
	assert.False(t, MACD(closes[:10], 12, 26, 9).Ready())
}

func TestADXTrendStrength(t *testing.T) {
	n := 60
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		base := 100 + 3*float64(i) // strong uptrend
		highs[i] = base + 1
		lows[i] = base - 1
		closes[i] = base
	}
	out := ADX(highs, lows, closes, 14)
	require.NotNil(t, out)

	last := out[n-1]
	assert.Greater(t, last, 25.0, "strong trend should produce high ADX")
	assert.False(t, math.IsNaN(last))

	// Mismatched lengths are rejected.
	assert.Nil(t, ADX(highs[:10], lows, closes, 14))
}
