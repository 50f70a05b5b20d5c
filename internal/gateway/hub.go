// Package gateway fans engine output out to WebSocket clients — the
// render pipeline's transport when it lives in a browser. The hub keeps
// the latest value per channel for instant replay on subscribe, stamps
// every envelope with a per-channel sequence number for client-side gap
// detection, and drops messages for slow clients rather than letting
// them stall the simulation loop.
package gateway

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"
)

// Hub manages WebSocket clients and channel fan-out.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]bool
	latest      map[string]latestEntry
	channelSeqs map[string]int64

	// End-to-end latency tracker (step time -> broadcast time)
	Latency *LatencyTracker

	// Metrics hooks (optional, set externally)
	OnClients   func(n int)
	OnDrop      func()
	OnBroadcast func()
}

type latestEntry struct {
	Data json.RawMessage
	TS   time.Time
	Seq  int64
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		latest:      make(map[string]latestEntry),
		channelSeqs: make(map[string]int64),
		Latency:     NewLatencyTracker(10000),
	}
}

// AddClient registers a client for fan-out.
func (h *Hub) AddClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	if h.OnClients != nil {
		h.OnClients(n)
	}
}

// RemoveClient unregisters a client and closes its send queue.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if h.OnClients != nil {
		h.OnClients(n)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends data on a channel to all subscribed clients. srcTS is
// the simulation step time that produced the data, used for end-to-end
// latency tracking. The envelope is hand-crafted — measured at a
// fraction of json.Marshal's cost on this path — and carries a
// per-channel seq so clients can detect gaps after drops.
func (h *Hub) Broadcast(channel string, data []byte, srcTS time.Time) {
	now := time.Now().UTC()

	if h.Latency != nil && !srcTS.IsZero() {
		if ms := float64(now.Sub(srcTS).Microseconds()) / 1000.0; ms >= 0 {
			h.Latency.Record(ms)
		}
	}

	h.mu.Lock()
	h.channelSeqs[channel]++
	seq := h.channelSeqs[channel]
	h.latest[channel] = latestEntry{Data: data, TS: now, Seq: seq}

	envelope := buildEnvelope(channel, data, now, seq)
	for c := range h.clients {
		if !c.matches(channel) {
			continue
		}
		select {
		case c.send <- envelope:
		default:
			if h.OnDrop != nil {
				h.OnDrop()
			}
		}
	}
	h.mu.Unlock()

	if h.OnBroadcast != nil {
		h.OnBroadcast()
	}
}

// buildEnvelope constructs {"channel":...,"data":...,"ts":...,"seq":N}
// without reflection.
func buildEnvelope(channel string, data []byte, now time.Time, seq int64) []byte {
	buf := make([]byte, 0, len(channel)+len(data)+128)
	buf = append(buf, `{"channel":"`...)
	buf = append(buf, channel...)
	buf = append(buf, `","data":`...)
	buf = append(buf, data...)
	buf = append(buf, `,"ts":"`...)
	buf = now.AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, `","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	buf = append(buf, '}')
	return buf
}

// sendLatest replays the stored latest entries for the given channels
// to one client, marked initial so the UI can distinguish replay from
// live flow.
func (h *Hub) sendLatest(c *Client, channels []string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, channel := range channels {
		entry, ok := h.latest[channel]
		if !ok {
			continue
		}
		envelope, _ := json.Marshal(map[string]interface{}{
			"channel": channel,
			"data":    entry.Data,
			"ts":      entry.TS.Format(time.RFC3339Nano),
			"seq":     entry.Seq,
			"initial": true,
		})
		select {
		case c.send <- envelope:
		default:
		}
	}
}
