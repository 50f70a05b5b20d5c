// Package indicator computes derived series from close prices.
//
// All functions are pure and total: they take a dense close-price slice
// (one entry per candle index) and return a slice of equal length, with
// math.NaN() marking indices where the lookback is not yet satisfied.
// Keeping the output index-aligned with the candle series means the
// viewport can overlay indicator values without any index bookkeeping.
//
// Invalid parameters (period <= 0) or input shorter than the lookback
// produce an all-undefined result, never a panic.
package indicator

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Default periods, matching the chart's stock configuration.
const (
	DefaultSMAPeriod = 20
	DefaultEMAPeriod = 12
	DefaultBBPeriod  = 20
	DefaultBBMult    = 2.0
	DefaultRSIPeriod = 14
)

// Indicator kinds accepted by Compute.
const (
	KindSMA       = "sma"
	KindEMA       = "ema"
	KindBollinger = "bollinger"
	KindRSI       = "rsi"
)

// Undefined is the sentinel for "no value at this index".
func Undefined() float64 { return math.NaN() }

// Defined reports whether v carries a computed value.
func Defined(v float64) bool { return !math.IsNaN(v) }

// Params carries per-indicator tuning. Zero values select the defaults.
type Params struct {
	Period int
	Mult   float64 // Bollinger band width multiplier
}

// Line is one named output series of an indicator.
type Line struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// MarshalJSON writes undefined points as null; NaN is not valid JSON.
func (l Line) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(`{"name":`)
	name, err := json.Marshal(l.Name)
	if err != nil {
		return nil, err
	}
	b.Write(name)
	b.WriteString(`,"values":[`)
	for i, v := range l.Values {
		if i > 0 {
			b.WriteByte(',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			b.WriteString("null")
		} else {
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	b.WriteString("]}")
	return b.Bytes(), nil
}

// Compute dispatches on kind and returns the indicator's output lines,
// each index-aligned with closes. Unknown kinds return nil.
func Compute(kind string, p Params, closes []float64) []Line {
	switch kind {
	case KindSMA:
		period := p.Period
		if period <= 0 {
			period = DefaultSMAPeriod
		}
		return []Line{{Name: "sma", Values: SMA(closes, period)}}
	case KindEMA:
		period := p.Period
		if period <= 0 {
			period = DefaultEMAPeriod
		}
		return []Line{{Name: "ema", Values: EMA(closes, period)}}
	case KindBollinger:
		period, mult := p.Period, p.Mult
		if period <= 0 {
			period = DefaultBBPeriod
		}
		if mult <= 0 {
			mult = DefaultBBMult
		}
		mid, upper, lower := Bollinger(closes, period, mult)
		return []Line{
			{Name: "mid", Values: mid},
			{Name: "upper", Values: upper},
			{Name: "lower", Values: lower},
		}
	case KindRSI:
		period := p.Period
		if period <= 0 {
			period = DefaultRSIPeriod
		}
		return []Line{{Name: "rsi", Values: RSI(closes, period)}}
	}
	return nil
}

// undefinedSeries returns an all-NaN slice of length n.
func undefinedSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
