package gateway

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client represents a single WebSocket peer.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	// Subscribed channels. Empty set = receive everything.
	subMu sync.RWMutex
	subs  map[string]bool
}

// newClient wraps an upgraded connection.
func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  hub,
		subs: make(map[string]bool),
	}
}

// matches reports whether this client should receive the channel.
func (c *Client) matches(channel string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	if len(c.subs) == 0 {
		return true
	}
	return c.subs[channel]
}

// controlMsg is the inbound client protocol: subscribe/unsubscribe to
// channels like "tick:BTC" or "candle:60s:BTC", plus an app-level ping.
type controlMsg struct {
	Op       string   `json:"op"`
	Channels []string `json:"channels"`
	Ping     int64    `json:"ping"`
}

func (c *Client) readPump() {
	defer func() {
		c.hub.RemoveClient(c)
		c.conn.Close()
		log.Println("[gateway] ws client disconnected")
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var ctl controlMsg
		if json.Unmarshal(msg, &ctl) != nil {
			continue
		}

		switch ctl.Op {
		case "subscribe":
			c.subMu.Lock()
			for _, ch := range ctl.Channels {
				c.subs[ch] = true
			}
			c.subMu.Unlock()
			c.hub.sendLatest(c, ctl.Channels)

		case "unsubscribe":
			c.subMu.Lock()
			for _, ch := range ctl.Channels {
				delete(c.subs, ch)
			}
			c.subMu.Unlock()

		default:
			if ctl.Ping > 0 {
				pong, _ := json.Marshal(map[string]interface{}{
					"op":        "pong",
					"ping":      ctl.Ping,
					"server_ts": time.Now().UnixMilli(),
				})
				select {
				case c.send <- pong:
				default:
				}
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))

			// Write coalescing: batch queued messages into a single
			// frame with newline separators.
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(msg)
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
