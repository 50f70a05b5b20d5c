package gateway

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"chartsim/internal/engine"
	"chartsim/internal/indicator"
	"chartsim/internal/viewport"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// defaultGeometry is used when the window request carries no plot size.
var defaultGeometry = viewport.Geometry{
	Width: 800, Height: 400,
	MarginTop: 10, MarginBottom: 24, MarginLeft: 0, MarginRight: 56,
}

// API serves the WebSocket endpoint and the read-side HTTP contract
// over the engine.
type API struct {
	hub  *Hub
	eng  *engine.Engine
	vcfg viewport.Config

	// IndicatorDefaults supplies per-kind params used when a request
	// names a kind without tuning. Zero entries fall back to the
	// indicator package defaults.
	IndicatorDefaults map[string]indicator.Params

	// OnWindowRequest is an optional metrics hook.
	OnWindowRequest func()
}

// NewAPI wires the gateway's HTTP surface.
func NewAPI(hub *Hub, eng *engine.Engine, vcfg viewport.Config) *API {
	return &API{hub: hub, eng: eng, vcfg: vcfg}
}

// Routes returns the gateway mux: /ws, /api/assets, /api/window.
func (a *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", a.handleWS)
	mux.HandleFunc("/api/assets", a.handleAssets)
	mux.HandleFunc("/api/window", a.handleWindow)
	mux.HandleFunc("/api/stats", a.handleStats)
	return mux
}

func (a *API) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] upgrade error: %v", err)
		return
	}
	log.Printf("[gateway] ws client connected: %s", r.RemoteAddr)

	c := newClient(a.hub, conn)
	a.hub.AddClient(c)
	go c.writePump()
	go c.readPump()
}

func (a *API) handleAssets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CatalogResponse{
		Assets:     a.eng.Assets(),
		Timeframes: a.eng.Timeframes(),
		ZoomLevels: a.vcfg.ZoomLevels,
		Indicators: []string{indicator.KindSMA, indicator.KindEMA, indicator.KindBollinger, indicator.KindRSI},
	})
}

// handleWindow computes the visible window for one chart instance.
//
// Query: asset, tf, zoom (zoom index), offset (candles back from
// latest), width/height (plot pixels, optional), indicators (csv of
// kinds), entry (overlay entry price, optional), time_left (0..1,
// optional).
func (a *API) handleWindow(w http.ResponseWriter, r *http.Request) {
	if a.OnWindowRequest != nil {
		a.OnWindowRequest()
	}
	q := r.URL.Query()

	asset := q.Get("asset")
	tf, _ := strconv.Atoi(q.Get("tf"))
	if asset == "" || tf <= 0 {
		writeError(w, http.StatusBadRequest, "asset and tf are required")
		return
	}
	if !a.eng.HasSeries(asset, tf) {
		writeError(w, http.StatusNotFound, "unknown asset or timeframe")
		return
	}

	zoom, _ := strconv.Atoi(q.Get("zoom"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	vs := viewport.State{ZoomIndex: zoom, ScrollOffset: offset}

	var ov viewport.Overlay
	if s := q.Get("entry"); s != "" {
		if p, err := strconv.ParseFloat(s, 64); err == nil && p > 0 {
			ov.HasEntry = true
			ov.EntryPrice = p
		}
	}
	if s := q.Get("time_left"); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f <= 1 {
			ov.TimeLeftFrac = f
		}
	}

	var specs []engine.IndicatorSpec
	if s := q.Get("indicators"); s != "" {
		for _, entry := range strings.Split(s, ",") {
			specs = append(specs, a.parseIndicator(strings.TrimSpace(entry)))
		}
	}

	res, ok := a.eng.VisibleWindow(asset, tf, a.vcfg, vs, ov, specs)
	if !ok {
		writeError(w, http.StatusNotFound, "nothing to draw")
		return
	}

	geom := defaultGeometry
	if wd, err := strconv.ParseFloat(q.Get("width"), 64); err == nil && wd > 0 {
		geom.Width = wd
	}
	if ht, err := strconv.ParseFloat(q.Get("height"), 64); err == nil && ht > 0 {
		geom.Height = ht
	}
	tr := viewport.NewTransform(geom, res.Window.PriceLo, res.Window.PriceHi, res.Window.Len())

	resp := WindowResponse{
		WindowResult: res,
		Geometry:     geom,
		CandleWidth:  tr.CandleWidth(),
	}
	if mm, ok := viewport.NewMinimap(minimapGeometry(geom), a.eng.Candles(asset, tf)); ok {
		x0, x1 := mm.ViewportRect(res.Window.StartIdx, res.Window.EndIdx)
		resp.Minimap = &MinimapRect{X0: x0, X1: x1}
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseIndicator resolves one "indicators" list entry: a bare kind
// ("sma"), or kind with inline tuning ("sma:30", "bollinger:20:2.5").
// Inline values win over the configured defaults.
func (a *API) parseIndicator(entry string) engine.IndicatorSpec {
	fields := strings.Split(entry, ":")
	kind := fields[0]
	params := a.IndicatorDefaults[kind]
	if len(fields) > 1 {
		if p, err := strconv.Atoi(fields[1]); err == nil && p > 0 {
			params.Period = p
		}
	}
	if len(fields) > 2 {
		if m, err := strconv.ParseFloat(fields[2], 64); err == nil && m > 0 {
			params.Mult = m
		}
	}
	return engine.IndicatorSpec{Kind: kind, Params: params}
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	p50, p95, p99 := a.hub.Latency.Percentiles()
	writeJSON(w, http.StatusOK, StatsResponse{
		Clients:      a.hub.ClientCount(),
		LatencyP50Ms: p50,
		LatencyP95Ms: p95,
		LatencyP99Ms: p99,
		Samples:      a.hub.Latency.Count(),
	})
}

// minimapGeometry is the fixed overview strip under the main plot.
func minimapGeometry(g viewport.Geometry) viewport.Geometry {
	return viewport.Geometry{
		Width: g.Width, Height: 48,
		MarginLeft: g.MarginLeft, MarginRight: g.MarginRight,
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
