package model

import (
	"encoding/json"
	"time"
)

// Tick is a single simulated price observation for one asset.
type Tick struct {
	Asset string    `json:"asset"`
	Price float64   `json:"price"`
	TS    time.Time `json:"ts"` // UTC timestamp
}

// Channel returns the gateway broadcast channel: "tick:{asset}".
func (t *Tick) Channel() string {
	return "tick:" + t.Asset
}

// JSON returns the JSON-encoded tick.
func (t *Tick) JSON() []byte {
	b, _ := json.Marshal(t)
	return b
}
