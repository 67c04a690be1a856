package indicator

import "math"

// ADX computes the average directional index over the given high/low/close
// series using Wilder smoothing. All three inputs must have equal length. The
// returned series is aligned with the inputs; entries inside the warm-up
// window (2*period) are zero. It returns nil when the inputs are shorter than
// 2*period+1 or their lengths differ.
func ADX(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	if period < 1 || n != len(highs) || n != len(lows) || n < 2*period+1 {
		return nil
	}

	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := highs[i] - highs[i-1]
		downMove := lows[i-1] - lows[i]
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
		tr[i] = math.Max(highs[i]-lows[i], math.Max(
			math.Abs(highs[i]-closes[i-1]),
			math.Abs(lows[i]-closes[i-1]),
		))
	}

	// Wilder-smoothed sums over the first period.
	var smTR, smPlus, smMinus float64
	for i := 1; i <= period; i++ {
		smTR += tr[i]
		smPlus += plusDM[i]
		smMinus += minusDM[i]
	}

	dx := make([]float64, n)
	for i := period + 1; i < n; i++ {
		smTR = smTR - smTR/float64(period) + tr[i]
		smPlus = smPlus - smPlus/float64(period) + plusDM[i]
		smMinus = smMinus - smMinus/float64(period) + minusDM[i]
		if smTR == 0 {
			continue
		}
		plusDI := 100 * smPlus / smTR
		minusDI := 100 * smMinus / smTR
		if sum := plusDI + minusDI; sum != 0 {
			dx[i] = 100 * math.Abs(plusDI-minusDI) / sum
		}
	}

	// ADX is the Wilder-smoothed DX.
	out := make([]float64, n)
	var adx float64
	for i := period + 1; i <= 2*period; i++ {
		adx += dx[i]
	}
	adx /= float64(period)
	out[2*period] = adx
	for i := 2*period + 1; i < n; i++ {
		adx = (adx*float64(period-1) + dx[i]) / float64(period)
		out[i] = adx
	}
	return out
}
