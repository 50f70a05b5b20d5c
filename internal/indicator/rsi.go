package indicator

// RSI returns Wilder's smoothed Relative Strength Index. The first
// `period` price differences seed the average gain/loss as a simple
// mean; every later step smooths both with factor 1/period. avgLoss of
// zero means RS -> infinity, i.e. RSI = 100 — never a division by zero.
// Indices before `period` are undefined.
func RSI(closes []float64, period int) []float64 {
	n := len(closes)
	if period <= 0 || n <= period {
		return undefinedSeries(n)
	}

	out := undefinedSeries(n)

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	p := float64(period)
	for i := period + 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
