package viewport

import "math"

// Drag anchors a drag-to-scroll gesture. The offset is recomputed from
// the position recorded at mouse-down on every move — never accumulated
// per frame — so rounding cannot drift over a long drag.
type Drag struct {
	startX      float64
	startOffset int
}

// BeginDrag records the gesture anchor at mouse-down.
func BeginDrag(s State, x float64) Drag {
	return Drag{startX: x, startOffset: s.ScrollOffset}
}

// Move returns the state for the cursor now being at x, given the pixel
// width of one candle. The pixel delta converts to a candle count and
// scrolls by its negation relative to the anchor, funneling through the
// same reducer clamping as every other scroll input.
func (d Drag) Move(cfg Config, s State, x, candleWidth float64, totalCandles int) State {
	if candleWidth <= 0 {
		return s
	}
	dragged := int(math.Round((x - d.startX) / candleWidth))
	s.ScrollOffset = d.startOffset
	return Apply(cfg, s, Action{Kind: ActionScrollBy, Delta: -dragged}, totalCandles)
}
