package viewport

import "math"

// Geometry describes the plot surface in pixels.
type Geometry struct {
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	MarginTop    float64 `json:"margin_top"`
	MarginBottom float64 `json:"margin_bottom"`
	MarginLeft   float64 `json:"margin_left"`
	MarginRight  float64 `json:"margin_right"`
}

// PlotWidth returns the inner drawable width.
func (g Geometry) PlotWidth() float64 { return g.Width - g.MarginLeft - g.MarginRight }

// PlotHeight returns the inner drawable height.
func (g Geometry) PlotHeight() float64 { return g.Height - g.MarginTop - g.MarginBottom }

// Transform maps between the visible slice's (index, price) space and
// pixel space. It is a pure value; build one per frame from the current
// window and geometry.
type Transform struct {
	geom      Geometry
	lo, hi    float64
	count     int
	priceSpan float64
}

// NewTransform builds a transform over a visible slice of `count`
// candles spanning prices [lo, hi]. Degenerate spans are substituted
// with 1 so the maps stay finite for any input.
func NewTransform(geom Geometry, lo, hi float64, count int) Transform {
	span := hi - lo
	if span == 0 {
		span = 1
	}
	if count <= 0 {
		count = 1
	}
	return Transform{geom: geom, lo: lo, hi: hi, count: count, priceSpan: span}
}

// PriceToPixel maps a price to a y coordinate; hi sits at the top margin.
func (t Transform) PriceToPixel(price float64) float64 {
	return t.geom.MarginTop + (t.hi-price)/t.priceSpan*t.geom.PlotHeight()
}

// PixelToPrice is the inverse of PriceToPixel.
func (t Transform) PixelToPrice(y float64) float64 {
	h := t.geom.PlotHeight()
	if h == 0 {
		return t.hi
	}
	return t.hi - (y-t.geom.MarginTop)/h*t.priceSpan
}

// CandleWidth returns the horizontal pixels allotted to one candle.
func (t Transform) CandleWidth() float64 {
	return t.geom.PlotWidth() / float64(t.count)
}

// IndexToPixel maps a slice-relative candle index to the x coordinate
// of its center. The map is affine and uniform over the slice.
func (t Transform) IndexToPixel(i int) float64 {
	return t.geom.MarginLeft + (float64(i)+0.5)*t.CandleWidth()
}

// PixelToIndex is the rounded inverse of IndexToPixel, clamped to valid
// slice bounds. Used for crosshair candle lookup.
func (t Transform) PixelToIndex(x float64) int {
	w := t.CandleWidth()
	if w == 0 {
		return 0
	}
	i := int(math.Round((x-t.geom.MarginLeft)/w - 0.5))
	if i < 0 {
		return 0
	}
	if i >= t.count {
		return t.count - 1
	}
	return i
}

// Crosshair is the candle/price lookup under a cursor position.
type Crosshair struct {
	SliceIndex  int     `json:"slice_index"`  // into Window.Candles
	SeriesIndex int     `json:"series_index"` // into the full series
	Time        int64   `json:"time"`         // bucket start of the candle under the cursor
	Price       float64 `json:"price"`        // price at the cursor's y
}

// CrosshairAt resolves a cursor position against a window. ok is false
// for an empty window.
func CrosshairAt(t Transform, w Window, x, y float64) (Crosshair, bool) {
	if w.Len() == 0 {
		return Crosshair{}, false
	}
	i := t.PixelToIndex(x)
	if i >= w.Len() {
		i = w.Len() - 1
	}
	return Crosshair{
		SliceIndex:  i,
		SeriesIndex: w.StartIdx + i,
		Time:        w.Candles[i].Time,
		Price:       t.PixelToPrice(y),
	}, true
}
