package gateway

import (
	"chartsim/internal/engine"
	"chartsim/internal/viewport"
)

// CatalogResponse answers /api/assets: everything a chart UI needs to
// populate its selectors.
type CatalogResponse struct {
	Assets     []string `json:"assets"`
	Timeframes []int    `json:"timeframes"`
	ZoomLevels []int    `json:"zoom_levels"`
	Indicators []string `json:"indicators"`
}

// StatsResponse answers /api/stats: gateway fan-out health at a glance.
type StatsResponse struct {
	Clients      int     `json:"clients"`
	LatencyP50Ms float64 `json:"latency_p50_ms"`
	LatencyP95Ms float64 `json:"latency_p95_ms"`
	LatencyP99Ms float64 `json:"latency_p99_ms"`
	Samples      int     `json:"samples"`
}

// MinimapRect is the highlighted viewport extent within the overview strip.
type MinimapRect struct {
	X0 float64 `json:"x0"`
	X1 float64 `json:"x1"`
}

// WindowResponse answers /api/window: the engine's window result plus
// the plot geometry the transforms were derived against.
type WindowResponse struct {
	engine.WindowResult
	Geometry    viewport.Geometry `json:"geometry"`
	CandleWidth float64           `json:"candle_width"`
	Minimap     *MinimapRect      `json:"minimap,omitempty"`
}
