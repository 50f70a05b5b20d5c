package model

import (
	"encoding/json"
	"time"
)

// Candle is one OHLC bucket of simulated price activity.
// Time is the bucket start in Unix milliseconds, aligned to the
// timeframe period (Time % (period*1000) == 0).
type Candle struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Bucket returns the aligned bucket start in Unix milliseconds for a
// timestamp and a timeframe period in seconds.
func Bucket(ts time.Time, periodSeconds int) int64 {
	periodMs := int64(periodSeconds) * 1000
	return ts.UnixMilli() / periodMs * periodMs
}

// Update is a forming-or-finalized candle paired with its series identity.
// This is the unit broadcast to gateway clients and published to Redis.
type Update struct {
	Asset string `json:"asset"`
	TF    int    `json:"tf"` // timeframe in seconds
	Candle
}

// Key returns "asset:tf", the series identity.
func (u *Update) Key() string {
	return u.Asset + ":" + Itoa(u.TF)
}

// Channel returns the gateway broadcast channel: "candle:{tf}s:{asset}".
// The Redis stream key uses the same shape.
func (u *Update) Channel() string {
	return "candle:" + Itoa(u.TF) + "s:" + u.Asset
}

// JSON returns the JSON-encoded update (ignoring errors for hot-path usage).
func (u *Update) JSON() []byte {
	b, _ := json.Marshal(u)
	return b
}
