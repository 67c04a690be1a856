package indicator

// RSI computes the relative strength index over closes using Wilder smoothing.
// The returned series is aligned with closes; entries before the warm-up
// window hold the seed value. It returns nil when closes is shorter than
// period+1.
func RSI(closes []float64, period int) []float64 {
	if period < 1 || len(closes) < period+1 {
		return nil
	}

	deltas := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		deltas[i-1] = closes[i] - closes[i-1]
	}

	var up, down float64
	for _, d := range deltas[:period] {
		if d >= 0 {
			up += d
		} else {
			down -= d
		}
	}
	up /= float64(period)
	down /= float64(period)

	out := make([]float64, len(closes))
	seed := 100.0
	if down != 0 {
		rs := up / down
		seed = 100 - 100/(1+rs)
	}
	for i := 0; i <= period; i++ {
		out[i] = seed
	}

	for i := period + 1; i < len(closes); i++ {
		d := deltas[i-1]
		var upval, downval float64
		if d > 0 {
			upval = d
		} else {
			downval = -d
		}
		up = (up*float64(period-1) + upval) / float64(period)
		down = (down*float64(period-1) + downval) / float64(period)
		if down == 0 {
			out[i] = 100
			continue
		}
		rs := up / down
		out[i] = 100 - 100/(1+rs)
	}
	return out
}
