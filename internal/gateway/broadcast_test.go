package gateway

import (
	"encoding/json"
	"testing"
	"time"
)

// envelope is the parsed WS message structure.
type envelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
	TS      string          `json:"ts"`
	Seq     int64           `json:"seq"`
}

func TestBuildEnvelope_Format(t *testing.T) {
	channel := "candle:60s:BTC"
	data := []byte(`{"asset":"BTC","tf":60,"time":1750000020000,"open":64000,"high":64010,"low":63990,"close":64005}`)
	now := time.Date(2026, 2, 25, 10, 0, 1, 0, time.UTC)
	var seq int64 = 42

	buf := buildEnvelope(channel, data, now, seq)

	var env envelope
	if err := json.Unmarshal(buf, &env); err != nil {
		t.Fatalf("envelope is not valid JSON: %v\nraw: %s", err, buf)
	}
	if env.Channel != channel {
		t.Errorf("channel: got %q, want %q", env.Channel, channel)
	}
	if env.Seq != seq {
		t.Errorf("seq: got %d, want %d", env.Seq, seq)
	}

	var candle map[string]interface{}
	if err := json.Unmarshal(env.Data, &candle); err != nil {
		t.Fatalf("data is not valid JSON: %v", err)
	}
	if _, ok := candle["time"]; !ok {
		t.Error("data missing 'time' field")
	}

	parsed, err := time.Parse(time.RFC3339Nano, env.TS)
	if err != nil {
		t.Errorf("ts is not valid RFC3339Nano: %v", err)
	}
	if !parsed.Equal(now) {
		t.Errorf("ts: got %v, want %v", parsed, now)
	}
}

func TestBroadcast_SeqIsPerChannelMonotonic(t *testing.T) {
	h := NewHub()
	src := time.Now().UTC()

	h.Broadcast("tick:BTC", []byte(`{"price":1}`), src)
	h.Broadcast("tick:BTC", []byte(`{"price":2}`), src)
	h.Broadcast("tick:ETH", []byte(`{"price":3}`), src)

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.channelSeqs["tick:BTC"] != 2 {
		t.Errorf("BTC seq: got %d, want 2", h.channelSeqs["tick:BTC"])
	}
	if h.channelSeqs["tick:ETH"] != 1 {
		t.Errorf("ETH seq: got %d, want 1", h.channelSeqs["tick:ETH"])
	}
}

func TestBroadcast_StoresLatestForReplay(t *testing.T) {
	h := NewHub()
	src := time.Now().UTC()

	h.Broadcast("candle:60s:BTC", []byte(`{"close":1}`), src)
	h.Broadcast("candle:60s:BTC", []byte(`{"close":2}`), src)

	h.mu.RLock()
	entry := h.latest["candle:60s:BTC"]
	h.mu.RUnlock()

	if string(entry.Data) != `{"close":2}` {
		t.Errorf("latest: got %s, want the most recent payload", entry.Data)
	}
	if entry.Seq != 2 {
		t.Errorf("latest seq: got %d, want 2", entry.Seq)
	}
}

func TestBroadcast_RecordsLatency(t *testing.T) {
	h := NewHub()
	src := time.Now().UTC().Add(-5 * time.Millisecond)

	h.Broadcast("tick:BTC", []byte(`{}`), src)

	if h.Latency.Count() != 1 {
		t.Errorf("latency samples: got %d, want 1", h.Latency.Count())
	}
	p50, _, _ := h.Latency.Percentiles()
	if p50 < 5 {
		t.Errorf("p50 %vms, want >= 5ms", p50)
	}
}

func TestClientMatches_SubscriptionFilter(t *testing.T) {
	c := &Client{subs: map[string]bool{}}

	// No subscriptions: receive everything.
	if !c.matches("tick:BTC") {
		t.Error("empty subscription set should match all channels")
	}

	c.subs["candle:60s:BTC"] = true
	if !c.matches("candle:60s:BTC") {
		t.Error("subscribed channel should match")
	}
	if c.matches("candle:300s:BTC") || c.matches("tick:BTC") {
		t.Error("unsubscribed channel should not match")
	}
}
