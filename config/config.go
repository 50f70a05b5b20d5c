// Package config loads service configuration from environment
// variables with sensible defaults. cmd binaries call godotenv first so
// a local .env file can supply the same variables.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"chartsim/internal/model"
)

// Config holds all application configuration.
type Config struct {
	// Simulation
	TickIntervalMs int
	Volatility     float64
	CandleCap      int
	Seed           int64 // 0 = time-seeded randomness

	// Topology
	Assets     []model.Asset // parsed from "SYMBOL:BASEPRICE,..."
	Timeframes []int         // seconds
	ZoomLevels []int         // ascending visible-candle counts

	// Indicator defaults (per-request params override these)
	SMAPeriod int
	EMAPeriod int
	BBPeriod  int
	BBMult    float64
	RSIPeriod int

	// Servers
	HTTPAddr    string
	MetricsAddr string

	// Optional Redis mirror ("" disables it)
	RedisAddr     string
	RedisPassword string

	LogLevel string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		TickIntervalMs: getEnvInt("TICK_INTERVAL_MS", 800),
		Volatility:     getEnvFloat("VOLATILITY", 0.0008),
		CandleCap:      getEnvInt("CANDLE_CAP", 500),
		Seed:           int64(getEnvInt("SIM_SEED", 0)),

		Assets:     parseAssets(getEnv("ASSETS", "BTC:64000,ETH:3400,SOL:180")),
		Timeframes: parseInts(getEnv("TIMEFRAMES", "60,120,300,900")),
		ZoomLevels: parseInts(getEnv("ZOOM_LEVELS", "40,60,80,100,140,200,300")),

		SMAPeriod: getEnvInt("SMA_PERIOD", 20),
		EMAPeriod: getEnvInt("EMA_PERIOD", 12),
		BBPeriod:  getEnvInt("BB_PERIOD", 20),
		BBMult:    getEnvFloat("BB_MULT", 2.0),
		RSIPeriod: getEnvInt("RSI_PERIOD", 14),

		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// parseAssets parses "BTC:64000,ETH:3400" into assets. Malformed
// entries are logged and skipped; an empty result is fatal since the
// simulation has nothing to drive.
func parseAssets(s string) []model.Asset {
	var out []model.Asset
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.SplitN(part, ":", 2)
		if len(fields) != 2 {
			log.Printf("[config] skipping malformed asset entry %q (want SYMBOL:BASEPRICE)", part)
			continue
		}
		base, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || base <= 0 {
			log.Printf("[config] skipping asset %q: bad base price %q", fields[0], fields[1])
			continue
		}
		out = append(out, model.Asset{Symbol: strings.ToUpper(fields[0]), BasePrice: base})
	}
	if len(out) == 0 {
		log.Fatalf("[config] ASSETS yielded no valid assets: %q", s)
	}
	return out
}

// parseInts parses a comma-separated list of positive integers.
func parseInts(s string) []int {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			log.Printf("[config] skipping invalid value %q", part)
			continue
		}
		out = append(out, n)
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[config] invalid int for %s: %q, using %d", key, v, def)
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("[config] invalid float for %s: %q, using %g", key, v, def)
	}
	return def
}
