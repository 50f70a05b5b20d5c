package indicator

// EMA returns the exponential moving average with smoothing
// k = 2/(period+1), seeded at index period-1 with the SMA of the first
// `period` closes. Indices before the seed are undefined.
func EMA(closes []float64, period int) []float64 {
	n := len(closes)
	if period <= 0 || n < period {
		return undefinedSeries(n)
	}

	out := undefinedSeries(n)
	k := 2.0 / float64(period+1)

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += closes[i]
	}
	seed /= float64(period)
	out[period-1] = seed

	prev := seed
	for i := period; i < n; i++ {
		prev = closes[i]*k + prev*(1-k)
		out[i] = prev
	}
	return out
}
