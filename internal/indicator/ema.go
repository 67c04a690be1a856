// Package indicator implements the technical-indicator math used by the
// built-in strategies. All functions operate on plain price series, oldest
// first, and return series aligned with their input.
package indicator

// EMA returns the exponential moving average of values with the given span.
// The first value seeds the series. It returns nil when values is empty or
// span < 1.
func EMA(values []float64, span int) []float64 {
	if len(values) == 0 || span < 1 {
		return nil
	}
	alpha := 2.0 / float64(span+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// SMA returns the simple moving average over a sliding window of size period.
// Entries before the window is full hold the average of the values seen so far.
func SMA(values []float64, period int) []float64 {
	if len(values) == 0 || period < 1 {
		return nil
	}
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
			out[i] = sum / float64(period)
		} else {
			out[i] = sum / float64(i+1)
		}
	}
	return out
}
