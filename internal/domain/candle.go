package domain

import "time"

// Candle is a single OHLCV bar for one symbol and timeframe.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Snapshot is the latest market view: per-symbol candle series, oldest first.
// A Snapshot handed to strategies must not be mutated by them.
type Snapshot map[string][]Candle

// Closes extracts the close-price series for a symbol, oldest first.
func (s Snapshot) Closes(symbol string) []float64 {
	candles := s[symbol]
	if len(candles) == 0 {
		return nil
	}
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// LatestPrice returns the most recent close for a symbol, or false when the
// symbol has no data.
func (s Snapshot) LatestPrice(symbol string) (float64, bool) {
	candles := s[symbol]
	if len(candles) == 0 {
		return 0, false
	}
	return candles[len(candles)-1].Close, true
}
