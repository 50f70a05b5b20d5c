// Package series maintains a bounded, gap-free OHLC candle history for a
// single (asset, timeframe) pair. Ticks either extend the forming candle
// in place or roll the series over to a new bucket; buckets that elapsed
// without a tick are back-filled flat at the previous close so candle
// times always advance in exact period steps.
//
// A Series is exclusively owned by its aggregator. Readers get copies;
// nothing outside this package mutates the history.
package series

import (
	"time"

	"chartsim/internal/model"
)

// DefaultCap is the rolling history bound per series.
const DefaultCap = 500

// Series is a capped, ordered candle history for one timeframe.
type Series struct {
	period  int // timeframe in seconds
	cap     int
	candles []model.Candle
}

// New creates an empty series for the given timeframe period (seconds).
// cap <= 0 falls back to DefaultCap.
func New(periodSeconds, cap int) *Series {
	if cap <= 0 {
		cap = DefaultCap
	}
	return &Series{
		period:  periodSeconds,
		cap:     cap,
		candles: make([]model.Candle, 0, cap+1),
	}
}

// Period returns the timeframe period in seconds.
func (s *Series) Period() int { return s.period }

// Cap returns the history bound.
func (s *Series) Cap() int { return s.cap }

// Len returns the number of candles currently held.
func (s *Series) Len() int { return len(s.candles) }

// Last returns the most recent candle. ok is false when the series is empty.
func (s *Series) Last() (model.Candle, bool) {
	if len(s.candles) == 0 {
		return model.Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}

// At returns the candle at index i (0 = oldest).
func (s *Series) At(i int) model.Candle { return s.candles[i] }

// Update folds a tick into the series and returns the forming candle
// after the update. Same-bucket ticks extend the last candle in place;
// a tick in a later bucket rolls over, back-filling any skipped buckets
// flat at the previous close. The operation is total over finite inputs.
func (s *Series) Update(price float64, ts time.Time) model.Candle {
	bucket := model.Bucket(ts, s.period)
	n := len(s.candles)

	if n > 0 {
		last := &s.candles[n-1]
		if bucket <= last.Time {
			// Same bucket (or a late tick): extend the forming candle.
			last.Close = price
			if price > last.High {
				last.High = price
			}
			if price < last.Low {
				last.Low = price
			}
			return *last
		}

		// Roll over. Buckets that elapsed without a tick are filled flat
		// so Time always advances by exactly one period.
		periodMs := int64(s.period) * 1000
		prevClose := last.Close
		for t := last.Time + periodMs; t < bucket; t += periodMs {
			s.candles = append(s.candles, model.Candle{
				Time: t, Open: prevClose, High: prevClose, Low: prevClose, Close: prevClose,
			})
		}
		s.candles = append(s.candles, model.Candle{
			Time: bucket, Open: prevClose, High: maxf(prevClose, price),
			Low: minf(prevClose, price), Close: price,
		})
		s.trim()
		return s.candles[len(s.candles)-1]
	}

	// First candle of the series.
	s.candles = append(s.candles, model.Candle{
		Time: bucket, Open: price, High: price, Low: price, Close: price,
	})
	return s.candles[0]
}

// Seed replaces the history with pre-generated candles (oldest first),
// trimming to the cap. Used once at startup for the synthetic backfill.
func (s *Series) Seed(candles []model.Candle) {
	s.candles = s.candles[:0]
	s.candles = append(s.candles, candles...)
	s.trim()
}

// Candles returns a copy of the full history, oldest first. Callers own
// the copy; the live series keeps rolling underneath.
func (s *Series) Candles() []model.Candle {
	out := make([]model.Candle, len(s.candles))
	copy(out, s.candles)
	return out
}

// Closes returns a copy of the close prices, index-aligned with Candles.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.candles))
	for i := range s.candles {
		out[i] = s.candles[i].Close
	}
	return out
}

// trim drops the oldest candles once the cap is exceeded.
func (s *Series) trim() {
	if over := len(s.candles) - s.cap; over > 0 {
		s.candles = append(s.candles[:0], s.candles[over:]...)
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
