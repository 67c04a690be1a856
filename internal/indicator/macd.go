package indicator

// MACDResult holds the three MACD series, aligned with the input closes.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes the moving average convergence divergence of closes with the
// given fast/slow/signal EMA spans. It returns a zero-value result when closes
// is shorter than the slow span.
func MACD(closes []float64, fast, slow, signal int) MACDResult {
	if len(closes) < slow || fast < 1 || slow <= fast || signal < 1 {
		return MACDResult{}
	}

	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	macd := make([]float64, len(closes))
	for i := range closes {
		macd[i] = fastEMA[i] - slowEMA[i]
	}

	sig := EMA(macd, signal)
	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = macd[i] - sig[i]
	}

	return MACDResult{MACD: macd, Signal: sig, Histogram: hist}
}

// Ready reports whether the result contains usable series.
func (r MACDResult) Ready() bool {
	return len(r.MACD) >= 2
}
