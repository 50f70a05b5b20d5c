// cmd/chartd — the chart simulation service.
//
// Runs the multi-asset price simulator and charting engine, serves the
// chart UI over WebSocket + HTTP (/ws, /api/assets, /api/window),
// exposes Prometheus metrics, and optionally mirrors candle updates to
// Redis Streams for external consumers.
//
// Config is environment-driven (see config package); a local .env file
// is honored.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"chartsim/config"
	"chartsim/internal/engine"
	"chartsim/internal/gateway"
	"chartsim/internal/indicator"
	"chartsim/internal/logger"
	"chartsim/internal/metrics"
	"chartsim/internal/ringbuf"
	redisstore "chartsim/internal/store/redis"
	"chartsim/internal/viewport"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	lg := logger.Init("chartd", logger.ParseLevel(cfg.LogLevel))
	lg.Info("starting",
		slog.Int("assets", len(cfg.Assets)),
		slog.Any("timeframes", cfg.Timeframes),
		slog.Int("tick_interval_ms", cfg.TickIntervalMs),
	)

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	symbols := make([]string, len(cfg.Assets))
	for i, a := range cfg.Assets {
		symbols[i] = a.Symbol
	}
	health.SetTopology(symbols, cfg.Timeframes)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Engine (seeds synthetic history for every asset/timeframe) ----
	seedStart := time.Now()
	eng := engine.New(engine.Config{
		Assets:     cfg.Assets,
		Timeframes: cfg.Timeframes,
		CandleCap:  cfg.CandleCap,
		Volatility: cfg.Volatility,
		Seed:       cfg.Seed,
		SeedTime:   time.Now().UTC(),
	})
	lg.Info("engine seeded", slog.Duration("took", time.Since(seedStart)))
	eng.OnIndicatorTime = func(d time.Duration) { prom.IndicatorComputeDur.Observe(d.Seconds()) }

	// ---- Shutdown plumbing ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Optional Redis mirror, fed off the hot path via the ring ----
	ring := ringbuf.New(8192)
	var pub *redisstore.Publisher
	if cfg.RedisAddr != "" {
		var err error
		pub, err = redisstore.New(redisstore.PublisherConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			lg.Warn("redis init failed, continuing without mirror", slog.Any("err", err))
			health.SetRedis(true, false)
		} else {
			pub.OnPublish = func(d time.Duration) { prom.RedisWriteDur.Observe(d.Seconds()) }
			pub.OnError = func() { prom.RedisPublishErr.Inc() }
			health.SetRedis(true, true)
			health.StartLivenessChecker(ctx, pub.Client(), 10*time.Second)
			go pub.Run(ctx, ring)
			defer pub.Close()
		}
	} else {
		health.SetRedis(false, false)
	}

	// ---- Gateway ----
	hub := gateway.NewHub()
	hub.OnClients = func(n int) { prom.WSClients.Set(float64(n)) }
	hub.OnDrop = func() { prom.WSDroppedMsgs.Inc() }
	hub.OnBroadcast = func() { prom.BroadcastsTotal.Inc() }

	vcfg := viewport.NewConfig(cfg.ZoomLevels)
	api := gateway.NewAPI(hub, eng, vcfg)
	api.OnWindowRequest = func() { prom.WindowRequests.Inc() }
	api.IndicatorDefaults = map[string]indicator.Params{
		indicator.KindSMA:       {Period: cfg.SMAPeriod},
		indicator.KindEMA:       {Period: cfg.EMAPeriod},
		indicator.KindBollinger: {Period: cfg.BBPeriod, Mult: cfg.BBMult},
		indicator.KindRSI:       {Period: cfg.RSIPeriod},
	}

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.Routes()}
	go func() {
		lg.Info("gateway listening", slog.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
			lg.Error("gateway server error", slog.Any("err", err))
		}
	}()

	// ---- Simulation loop ----
	go runLoop(ctx, cfg.TickIntervalMs, eng, hub, ring, pub, prom, health)

	<-sigCh
	lg.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)
	lg.Info("bye")
}

// runLoop drives one simulation step per tick interval. Within a step,
// price generation, aggregation and broadcast run strictly in sequence;
// only the Redis mirror is asynchronous (behind the ring).
func runLoop(ctx context.Context, intervalMs int, eng *engine.Engine, hub *gateway.Hub,
	ring *ringbuf.Ring, pub *redisstore.Publisher, prom *metrics.Metrics, health *metrics.HealthStatus) {

	if intervalMs <= 0 {
		intervalMs = 800
	}
	ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().UTC()
			start := time.Now()
			res := eng.Step(now)
			prom.StepDur.Observe(time.Since(start).Seconds())
			prom.TicksTotal.Add(float64(len(res.Ticks)))
			health.SetLastStepTime(now)

			for i := range res.Ticks {
				t := &res.Ticks[i]
				hub.Broadcast(t.Channel(), t.JSON(), now)
			}
			for i := range res.Updates {
				u := &res.Updates[i]
				prom.CandlesTotal.WithLabelValues(strconv.Itoa(u.TF)).Inc()
				hub.Broadcast(u.Channel(), u.JSON(), now)
				if pub != nil && !ring.Push(*u) {
					prom.RingBufOverflow.Inc()
				}
			}
			if pub != nil {
				// Latest-price mirror; one pipeline per step, fire and forget.
				go pub.PublishTicks(ctx, res.Ticks)
			}
		}
	}
}
