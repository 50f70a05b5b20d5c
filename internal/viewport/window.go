package viewport

import (
	"math"

	"chartsim/internal/model"
)

// rangePad is the multiplicative margin keeping extremes off the plot edges.
const rangePad = 0.001

// Overlay carries the optional trade-lifecycle inputs from the
// settlement collaborator. The engine only folds them into the price
// range and echoes them back; it owns no trade state.
type Overlay struct {
	EntryPrice   float64 `json:"entry_price,omitempty"`
	HasEntry     bool    `json:"has_entry"`
	TimeLeftFrac float64 `json:"time_left_frac,omitempty"` // 0..1 of the trade's lifetime remaining
}

// Window is the renderable visible slice of a series plus its derived
// price range. Candles is a fresh copy; mutating it cannot touch the
// live history.
type Window struct {
	Candles  []model.Candle `json:"candles"`
	StartIdx int            `json:"start_idx"` // inclusive, into the full series
	EndIdx   int            `json:"end_idx"`   // exclusive
	PriceLo  float64        `json:"price_lo"`
	PriceHi  float64        `json:"price_hi"`
	AtLatest bool           `json:"at_latest"`
	Overlay  Overlay        `json:"overlay"`
}

// Len returns the number of visible candles.
func (w *Window) Len() int { return len(w.Candles) }

// ComputeWindow derives the visible window for a series snapshot.
//
// The price range spans the visible candle highs/lows, the live price
// when the view is at latest, the entry price marker if present, and
// any defined values of the supplied overlay series (indicator lines or
// bands, full-length and index-aligned with candles). Both ends are
// padded by ±0.1%. ok is false when the series is empty — the caller
// draws nothing this frame instead of dividing by zero downstream.
func ComputeWindow(cfg Config, s State, candles []model.Candle, livePrice float64, ov Overlay, overlaySeries ...[]float64) (Window, bool) {
	total := len(candles)
	if total == 0 {
		return Window{}, false
	}

	visible := cfg.VisibleCount(s)
	offset := cfg.EffectiveOffset(s, total)

	end := total - offset
	start := end - visible
	if start < 0 {
		start = 0
	}

	w := Window{
		StartIdx: start,
		EndIdx:   end,
		AtLatest: offset == 0,
		Overlay:  ov,
	}
	w.Candles = make([]model.Candle, end-start)
	copy(w.Candles, candles[start:end])

	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range w.Candles {
		lo = math.Min(lo, w.Candles[i].Low)
		hi = math.Max(hi, w.Candles[i].High)
	}
	if w.AtLatest && livePrice > 0 {
		lo = math.Min(lo, livePrice)
		hi = math.Max(hi, livePrice)
	}
	if ov.HasEntry && ov.EntryPrice > 0 {
		lo = math.Min(lo, ov.EntryPrice)
		hi = math.Max(hi, ov.EntryPrice)
	}
	for _, line := range overlaySeries {
		for i := start; i < end && i < len(line); i++ {
			v := line[i]
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	w.PriceLo = lo * (1 - rangePad)
	w.PriceHi = hi * (1 + rangePad)
	if w.PriceHi-w.PriceLo == 0 {
		// Degenerate flat range (e.g. single flat candle at price 0 pad).
		w.PriceHi = w.PriceLo + 1
	}
	return w, true
}
