package indicator

// SMA returns the simple moving average of the trailing `period` closes.
// Indices before period-1 are undefined. A running sum makes the pass
// O(n) regardless of period.
func SMA(closes []float64, period int) []float64 {
	n := len(closes)
	if period <= 0 || n < period {
		return undefinedSeries(n)
	}

	out := undefinedSeries(n)
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += closes[i]
		if i >= period {
			sum -= closes[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}
