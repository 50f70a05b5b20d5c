package viewport

import (
	"math"

	"chartsim/internal/model"
)

// Minimap is an independent affine map over the entire series, used to
// render the overview strip and its highlighted viewport rectangle. It
// shares the source series with the main transform but scales on its
// own, so overview and main chart stay mathematically consistent
// without coupling their geometries.
type Minimap struct {
	geom  Geometry
	lo    float64
	span  float64
	total int
}

// NewMinimap builds the overview map from the full candle history.
// ok is false for an empty series.
func NewMinimap(geom Geometry, candles []model.Candle) (Minimap, bool) {
	if len(candles) == 0 {
		return Minimap{}, false
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range candles {
		lo = math.Min(lo, candles[i].Low)
		hi = math.Max(hi, candles[i].High)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return Minimap{geom: geom, lo: lo, span: span, total: len(candles)}, true
}

// IndexToPixel maps a full-series candle index to an x coordinate.
func (m Minimap) IndexToPixel(i int) float64 {
	return m.geom.MarginLeft + (float64(i)+0.5)*m.geom.PlotWidth()/float64(m.total)
}

// PriceToPixel maps a price to a y coordinate within the overview strip.
func (m Minimap) PriceToPixel(price float64) float64 {
	hi := m.lo + m.span
	return m.geom.MarginTop + (hi-price)/m.span*m.geom.PlotHeight()
}

// ViewportRect returns the x extent of the highlighted rectangle for a
// window [startIdx, endIdx) of the same series.
func (m Minimap) ViewportRect(startIdx, endIdx int) (x0, x1 float64) {
	w := m.geom.PlotWidth() / float64(m.total)
	x0 = m.geom.MarginLeft + float64(startIdx)*w
	x1 = m.geom.MarginLeft + float64(endIdx)*w
	return x0, x1
}
