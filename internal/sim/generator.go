// Package sim provides the synthetic price source: a bounded random walk
// for live ticks plus a backward walk that seeds each series with a
// plausible history before the first real tick arrives.
package sim

import (
	"math"
	"math/rand"
	"time"

	"chartsim/internal/model"
)

// DefaultVolatility is the half-width of the per-tick shock range (±0.08%).
const DefaultVolatility = 0.0008

// Generator produces simulated prices. It is not goroutine-safe; the
// engine drives it from a single loop.
type Generator struct {
	volatility float64
	rng        *rand.Rand
}

// New creates a Generator. volatility <= 0 falls back to DefaultVolatility;
// a nil rng gets a time-seeded source (inject a fixed-seed rand for
// deterministic runs).
func New(volatility float64, rng *rand.Rand) *Generator {
	if volatility <= 0 {
		volatility = DefaultVolatility
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{volatility: volatility, rng: rng}
}

// Next returns the next price: prev * (1 + shock), shock uniform in
// ±volatility. A non-finite or non-positive result retains prev, so the
// walk can never leave the positive reals.
func (g *Generator) Next(prev float64) float64 {
	shock := (g.rng.Float64()*2 - 1) * g.volatility
	next := prev * (1 + shock)
	if math.IsNaN(next) || math.IsInf(next, 0) || next <= 0 {
		return prev
	}
	return next
}

// SeedHistory generates n candles of synthetic history for one timeframe,
// ending at the bucket containing `end` and closing at basePrice.
//
// The walk runs backward from basePrice with per-step volatility scaled
// by sqrt(periodSeconds/60), so longer timeframes show proportionally
// larger candle bodies and multi-timeframe views stay statistically
// consistent. Candles are returned oldest first, gap-free, with the
// usual OHLC invariants intact.
func (g *Generator) SeedHistory(basePrice float64, periodSeconds, n int, end time.Time) []model.Candle {
	if n <= 0 || basePrice <= 0 {
		return nil
	}

	scale := math.Sqrt(float64(periodSeconds) / 60.0)
	vol := g.volatility * scale

	// Backward walk over closes: closes[n-1] = basePrice.
	closes := make([]float64, n)
	closes[n-1] = basePrice
	for i := n - 2; i >= 0; i-- {
		shock := (g.rng.Float64()*2 - 1) * vol
		prev := closes[i+1] * (1 + shock)
		if math.IsNaN(prev) || math.IsInf(prev, 0) || prev <= 0 {
			prev = closes[i+1]
		}
		closes[i] = prev
	}

	periodMs := int64(periodSeconds) * 1000
	lastBucket := model.Bucket(end, periodSeconds)
	firstBucket := lastBucket - int64(n-1)*periodMs

	candles := make([]model.Candle, n)
	for i := 0; i < n; i++ {
		open := closes[i]
		if i > 0 {
			open = closes[i-1]
		}
		close := closes[i]
		hi := math.Max(open, close)
		lo := math.Min(open, close)
		// Wick: a small extra excursion beyond the body on both sides.
		wick := g.rng.Float64() * vol * close
		candles[i] = model.Candle{
			Time:  firstBucket + int64(i)*periodMs,
			Open:  open,
			High:  hi + wick,
			Low:   math.Max(lo-wick, lo*0.5),
			Close: close,
		}
	}
	return candles
}
