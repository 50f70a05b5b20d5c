// Package metrics exposes Prometheus instrumentation and a small HTTP
// server with /metrics and /healthz for the chart simulation service.
package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the simulation engine.
type Metrics struct {
	TicksTotal   prometheus.Counter
	StepDur      prometheus.Histogram
	CandlesTotal *prometheus.CounterVec // labels: tf

	// Window/read path
	WindowRequests      prometheus.Counter
	IndicatorComputeDur prometheus.Histogram

	// Publish path
	RingBufOverflow prometheus.Counter
	RedisWriteDur   prometheus.Histogram
	RedisPublishErr prometheus.Counter

	// Gateway
	WSClients       prometheus.Gauge
	WSDroppedMsgs   prometheus.Counter
	BroadcastsTotal prometheus.Counter
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartsim_ticks_total",
			Help: "Total simulated price ticks generated",
		}),
		StepDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chartsim_step_duration_seconds",
			Help:    "Duration of one simulation step (generate + aggregate)",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 15),
		}),
		CandlesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartsim_candle_updates_total",
			Help: "Candle updates produced per timeframe",
		}, []string{"tf"}),
		WindowRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartsim_window_requests_total",
			Help: "Visible-window computations served",
		}),
		IndicatorComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chartsim_indicator_compute_duration_seconds",
			Help:    "Duration of indicator computation per window request",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 15),
		}),
		RingBufOverflow: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartsim_ringbuf_overflow_total",
			Help: "Candle updates dropped because the publish ring was full",
		}),
		RedisWriteDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chartsim_redis_write_duration_seconds",
			Help:    "Duration of Redis stream publishes",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		}),
		RedisPublishErr: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartsim_redis_publish_errors_total",
			Help: "Failed Redis stream publishes",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chartsim_ws_clients",
			Help: "Currently connected WebSocket clients",
		}),
		WSDroppedMsgs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartsim_ws_dropped_messages_total",
			Help: "Messages dropped for slow WebSocket clients",
		}),
		BroadcastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartsim_broadcasts_total",
			Help: "Envelopes broadcast to gateway subscribers",
		}),
	}

	prometheus.MustRegister(
		m.TicksTotal,
		m.StepDur,
		m.CandlesTotal,
		m.WindowRequests,
		m.IndicatorComputeDur,
		m.RingBufOverflow,
		m.RedisWriteDur,
		m.RedisPublishErr,
		m.WSClients,
		m.WSDroppedMsgs,
		m.BroadcastsTotal,
	)

	return m
}

// HealthStatus represents the service health.
type HealthStatus struct {
	mu sync.RWMutex

	LastStepTime   time.Time `json:"last_step_time"`
	RedisEnabled   bool      `json:"redis_enabled"`
	RedisConnected bool      `json:"redis_connected"`
	Assets         []string  `json:"assets"`
	EnabledTFs     []int     `json:"enabled_tfs"`

	RedisLatencyMs float64   `json:"redis_latency_ms"`
	LastCheckAt    time.Time `json:"last_check_at"`
	StartedAt      time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

func (h *HealthStatus) SetLastStepTime(t time.Time) {
	h.mu.Lock()
	h.LastStepTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedis(enabled, connected bool) {
	h.mu.Lock()
	h.RedisEnabled = enabled
	h.RedisConnected = connected
	h.mu.Unlock()
}

func (h *HealthStatus) SetTopology(assets []string, tfs []int) {
	h.mu.Lock()
	h.Assets = assets
	h.EnabledTFs = tfs
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if rdb != nil {
					probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
					h.CheckRedis(probeCtx, rdb)
					cancel()
				}
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// The simulation itself has no external dependency; the only
	// degradable piece is an enabled-but-unreachable Redis publisher.
	overallStatus := "healthy"
	httpCode := http.StatusOK
	if h.RedisEnabled && !h.RedisConnected {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	stepAge := ""
	if !h.LastStepTime.IsZero() {
		stepAge = time.Since(h.LastStepTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status         string   `json:"status"`
		Uptime         string   `json:"uptime"`
		LastStepTime   string   `json:"last_step_time"`
		StepAge        string   `json:"step_age"`
		RedisEnabled   bool     `json:"redis_enabled"`
		RedisConnected bool     `json:"redis_connected"`
		RedisLatencyMs float64  `json:"redis_latency_ms"`
		Assets         []string `json:"assets"`
		EnabledTFs     []int    `json:"enabled_tfs"`
		LastCheckAt    string   `json:"last_check_at"`
	}{
		Status:         overallStatus,
		Uptime:         time.Since(h.StartedAt).Round(time.Second).String(),
		LastStepTime:   h.LastStepTime.Format(time.RFC3339),
		StepAge:        stepAge,
		RedisEnabled:   h.RedisEnabled,
		RedisConnected: h.RedisConnected,
		RedisLatencyMs: h.RedisLatencyMs,
		Assets:         h.Assets,
		EnabledTFs:     h.EnabledTFs,
		LastCheckAt:    h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
