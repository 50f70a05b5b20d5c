// Package viewport turns an unbounded candle history into a bounded
// visible window plus pixel-space transforms.
//
// Navigation state is a small immutable value (zoom index + scroll
// offset) advanced by a pure reducer, so keyboard, wheel and drag input
// all funnel through the same clamping logic and cannot desynchronize.
// Everything here is read-only over the candle series: derived windows
// are fresh values, never aliases into the live history.
package viewport

// DefaultZoomLevels is the fixed ascending list of visible-candle counts.
var DefaultZoomLevels = []int{40, 60, 80, 100, 140, 200, 300}

// Config holds the fixed navigation parameters shared by all chart
// instances of one deployment.
type Config struct {
	ZoomLevels []int // ascending visible-candle counts
}

// NewConfig returns a Config, falling back to DefaultZoomLevels when
// levels is empty.
func NewConfig(levels []int) Config {
	if len(levels) == 0 {
		levels = DefaultZoomLevels
	}
	return Config{ZoomLevels: levels}
}

// State is the navigation position of one chart instance. The zero
// value is a valid "at latest, first zoom level" state.
type State struct {
	ZoomIndex    int // index into Config.ZoomLevels
	ScrollOffset int // candles back from the most recent, >= 0
}

// ActionKind enumerates the navigation actions.
type ActionKind int

const (
	ActionZoomIn ActionKind = iota
	ActionZoomOut
	ActionScrollBy
	ActionGoToLatest
	ActionGoToOldest
	ActionSetTimeframe // switching timeframe snaps back to live
)

// Action is one discrete navigation input. Delta is only meaningful for
// ActionScrollBy (positive = further into history).
type Action struct {
	Kind  ActionKind
	Delta int
}

// Apply is the navigation reducer: (state, action) -> state'. It never
// mutates s and never produces an out-of-range state; out-of-bounds
// requests clamp silently, they are steady states rather than errors.
func Apply(cfg Config, s State, a Action, totalCandles int) State {
	switch a.Kind {
	case ActionZoomIn:
		if s.ZoomIndex > 0 {
			s.ZoomIndex--
		}
	case ActionZoomOut:
		if s.ZoomIndex < len(cfg.ZoomLevels)-1 {
			s.ZoomIndex++
		}
	case ActionScrollBy:
		s.ScrollOffset = clamp(s.ScrollOffset+a.Delta, 0, cfg.MaxOffset(s, totalCandles))
	case ActionGoToLatest:
		s.ScrollOffset = 0
	case ActionGoToOldest:
		s.ScrollOffset = cfg.MaxOffset(s, totalCandles)
	case ActionSetTimeframe:
		s.ScrollOffset = 0
	}
	return s
}

// VisibleCount returns the number of candles the current zoom level shows.
func (c Config) VisibleCount(s State) int {
	idx := clamp(s.ZoomIndex, 0, len(c.ZoomLevels)-1)
	return c.ZoomLevels[idx]
}

// MaxOffset returns the furthest valid scroll offset for the series length.
func (c Config) MaxOffset(s State, totalCandles int) int {
	m := totalCandles - c.VisibleCount(s)
	if m < 0 {
		return 0
	}
	return m
}

// EffectiveOffset clamps the stored offset into [0, MaxOffset].
func (c Config) EffectiveOffset(s State, totalCandles int) int {
	return clamp(s.ScrollOffset, 0, c.MaxOffset(s, totalCandles))
}

// IsAtLatest reports whether the window's right edge sits on the most
// recent candle.
func (c Config) IsAtLatest(s State, totalCandles int) bool {
	return c.EffectiveOffset(s, totalCandles) == 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
