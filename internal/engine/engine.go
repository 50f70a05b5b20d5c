// Package engine owns the live asset state and sequences the
// tick → aggregate pipeline. One Engine instance holds every asset's
// current price and its candle series for every configured timeframe;
// all of them advance on every step regardless of what is being
// displayed, so switching assets or timeframes never loses history.
package engine

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"chartsim/internal/indicator"
	"chartsim/internal/model"
	"chartsim/internal/series"
	"chartsim/internal/sim"
	"chartsim/internal/viewport"
)

// Config seeds a new Engine.
type Config struct {
	Assets     []model.Asset
	Timeframes []int // periods in seconds
	CandleCap  int
	Volatility float64
	Seed       int64 // 0 = time-seeded randomness
	SeedTime   time.Time
}

// assetState is the live state of one asset: its current price and one
// series per timeframe. Mutated only under the engine lock.
type assetState struct {
	price float64
	byTF  map[int]*series.Series
}

// Engine is the market-data core. All exported methods are safe for
// concurrent use; internally a single mutex serializes the tick loop
// against gateway readers, preserving the strict
// tick → aggregate → read ordering per step.
type Engine struct {
	mu         sync.Mutex
	gen        *sim.Generator
	timeframes []int
	assets     map[string]*assetState
	order      []string // stable asset iteration order

	// OnIndicatorTime is an optional metrics hook, called with the time
	// spent computing indicator lines for one window request.
	OnIndicatorTime func(d time.Duration)
}

// StepResult reports what one simulation step touched.
type StepResult struct {
	Ticks   []model.Tick   // one per asset, in stable order
	Updates []model.Update // forming candle per touched (asset, timeframe)
}

// New builds an Engine and seeds every (asset, timeframe) series with a
// synthetic backward-walk history ending at cfg.SeedTime.
func New(cfg Config) *Engine {
	var rng *rand.Rand
	if cfg.Seed != 0 {
		rng = rand.New(rand.NewSource(cfg.Seed))
	}
	gen := sim.New(cfg.Volatility, rng)

	cap := cfg.CandleCap
	if cap <= 0 {
		cap = series.DefaultCap
	}
	seedTime := cfg.SeedTime
	if seedTime.IsZero() {
		seedTime = time.Now().UTC()
	}

	e := &Engine{
		gen:        gen,
		timeframes: append([]int(nil), cfg.Timeframes...),
		assets:     make(map[string]*assetState, len(cfg.Assets)),
	}
	sort.Ints(e.timeframes)

	for _, a := range cfg.Assets {
		st := &assetState{price: a.BasePrice, byTF: make(map[int]*series.Series, len(e.timeframes))}
		for _, tf := range e.timeframes {
			sr := series.New(tf, cap)
			sr.Seed(gen.SeedHistory(a.BasePrice, tf, cap, seedTime))
			st.byTF[tf] = sr
		}
		e.assets[a.Symbol] = st
		e.order = append(e.order, a.Symbol)
	}
	return e
}

// Step advances the simulation one tick. Price generation for all
// assets completes before any aggregation, and all timeframes of one
// asset aggregate together, so no reader can observe a partial update.
func (e *Engine) Step(now time.Time) StepResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := StepResult{
		Ticks:   make([]model.Tick, 0, len(e.order)),
		Updates: make([]model.Update, 0, len(e.order)*len(e.timeframes)),
	}

	// Phase 1: generate every asset's next price.
	for _, sym := range e.order {
		st := e.assets[sym]
		st.price = e.gen.Next(st.price)
		res.Ticks = append(res.Ticks, model.Tick{Asset: sym, Price: st.price, TS: now})
	}

	// Phase 2: fan each price into all of the asset's timeframes.
	for _, sym := range e.order {
		st := e.assets[sym]
		for _, tf := range e.timeframes {
			c := st.byTF[tf].Update(st.price, now)
			res.Updates = append(res.Updates, model.Update{Asset: sym, TF: tf, Candle: c})
		}
	}
	return res
}

// Price returns the current price of an asset (0 for unknown assets).
func (e *Engine) Price(asset string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.assets[asset]; ok {
		return st.price
	}
	return 0
}

// Candles returns a copy of the full history for (asset, timeframe).
// nil when the pair is not configured.
func (e *Engine) Candles(asset string, tf int) []model.Candle {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sr := e.lookup(asset, tf); sr != nil {
		return sr.Candles()
	}
	return nil
}

// Closes returns a copy of the close-price series for (asset, timeframe).
func (e *Engine) Closes(asset string, tf int) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sr := e.lookup(asset, tf); sr != nil {
		return sr.Closes()
	}
	return nil
}

// Assets returns the configured asset symbols in stable order.
func (e *Engine) Assets() []string {
	return append([]string(nil), e.order...)
}

// Timeframes returns the configured timeframe periods in seconds.
func (e *Engine) Timeframes() []int {
	return append([]int(nil), e.timeframes...)
}

// HasSeries reports whether (asset, timeframe) is configured.
func (e *Engine) HasSeries(asset string, tf int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lookup(asset, tf) != nil
}

// VisibleWindow derives the renderable window for one chart instance.
// Enabled indicator kinds contribute their lines both to auto-ranging
// (bands can poke above the candle highs) and to the returned set.
// ok is false when the series is empty or not configured.
func (e *Engine) VisibleWindow(asset string, tf int, vcfg viewport.Config, vs viewport.State, ov viewport.Overlay, indicators []IndicatorSpec) (WindowResult, bool) {
	e.mu.Lock()
	var candles []model.Candle
	var closes []float64
	var live float64
	if sr := e.lookup(asset, tf); sr != nil {
		candles = sr.Candles()
		closes = sr.Closes()
	}
	if st, ok := e.assets[asset]; ok {
		live = st.price
	}
	e.mu.Unlock()

	if len(candles) == 0 {
		return WindowResult{}, false
	}

	var lines []indicator.Line
	var rangeSeries [][]float64
	indStart := time.Now()
	for _, spec := range indicators {
		for _, line := range indicator.Compute(spec.Kind, spec.Params, closes) {
			lines = append(lines, indicator.Line{
				Name:   spec.Kind + ":" + line.Name,
				Values: line.Values,
			})
			// Oscillators live on their own scale; only price-space
			// overlays participate in auto-ranging.
			if spec.Kind != indicator.KindRSI {
				rangeSeries = append(rangeSeries, line.Values)
			}
		}
	}
	if e.OnIndicatorTime != nil && len(indicators) > 0 {
		e.OnIndicatorTime(time.Since(indStart))
	}

	w, ok := viewport.ComputeWindow(vcfg, vs, candles, live, ov, rangeSeries...)
	if !ok {
		return WindowResult{}, false
	}
	return WindowResult{Window: w, Indicators: lines, LivePrice: live, TotalCandles: len(candles)}, true
}

// IndicatorSpec selects one indicator for a window computation.
type IndicatorSpec struct {
	Kind   string
	Params indicator.Params
}

// WindowResult bundles a visible window with its indicator series.
// Indicator values are full-length and index-aligned with the series;
// consumers slice them with [Window.StartIdx, Window.EndIdx).
type WindowResult struct {
	Window       viewport.Window  `json:"window"`
	Indicators   []indicator.Line `json:"indicators,omitempty"`
	LivePrice    float64          `json:"live_price"`
	TotalCandles int              `json:"total_candles"`
}

func (e *Engine) lookup(asset string, tf int) *series.Series {
	st, ok := e.assets[asset]
	if !ok {
		return nil
	}
	return st.byTF[tf]
}
