// Package redis mirrors engine output to Redis for external consumers
// (remote render pipelines, dashboards). It is strictly optional and
// off the simulation hot path: the service feeds it through an SPSC
// ring, failed publishes are logged and counted, never retried in-line.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"chartsim/internal/model"
	"chartsim/internal/ringbuf"

	goredis "github.com/go-redis/redis/v8"
)

const (
	// Stream trimming: roughly one candle cap's worth per timeframe.
	streamMaxLen     = 600
	defaultLatestTTL = 30 * time.Minute

	// drainInterval is how often the publisher polls the ring when idle.
	drainInterval = 50 * time.Millisecond
)

// PublisherConfig configures the Redis publisher.
type PublisherConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher writes candle updates and latest tick prices to Redis.
type Publisher struct {
	client *goredis.Client

	// Metrics hooks (optional, set externally)
	OnPublish func(d time.Duration)
	OnError   func()
}

// New creates a Publisher and pings the server.
func New(cfg PublisherConfig) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Publisher{client: client}, nil
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// Run drains candle updates from the ring and publishes them in batches.
// Blocks until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context, ring *ringbuf.Ring) {
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	batch := make([]model.Update, 0, 256)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			batch = batch[:0]
			for len(batch) < cap(batch) {
				u, ok := ring.Pop()
				if !ok {
					break
				}
				batch = append(batch, u)
			}
			if len(batch) > 0 {
				p.PublishUpdates(ctx, batch)
			}
		}
	}
}

// PublishUpdates writes a batch of candle updates in one pipeline:
// XADD to the per-series stream (trimmed), SET latest with TTL, and
// PUBLISH for pub/sub subscribers.
func (p *Publisher) PublishUpdates(ctx context.Context, updates []model.Update) {
	if len(updates) == 0 {
		return
	}
	start := time.Now()

	pipe := p.client.Pipeline()
	for i := range updates {
		u := &updates[i]
		data := string(u.JSON())
		streamKey := u.Channel()

		pipe.XAdd(ctx, &goredis.XAddArgs{
			Stream: streamKey,
			MaxLen: streamMaxLen,
			Approx: true,
			Values: map[string]interface{}{"data": data},
		})
		pipe.Set(ctx, streamKey+":latest", data, defaultLatestTTL)
		pipe.Publish(ctx, "pub:"+streamKey, data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[redis] update pipeline error (%d updates): %v", len(updates), err)
		if p.OnError != nil {
			p.OnError()
		}
		return
	}
	if p.OnPublish != nil {
		p.OnPublish(time.Since(start))
	}
}

// PublishTicks mirrors the latest price per asset: SET with TTL plus
// PUBLISH, no stream (ticks are ephemeral; candles are the history).
func (p *Publisher) PublishTicks(ctx context.Context, ticks []model.Tick) {
	if len(ticks) == 0 {
		return
	}
	start := time.Now()

	pipe := p.client.Pipeline()
	for i := range ticks {
		t := &ticks[i]
		data := string(t.JSON())
		pipe.Set(ctx, t.Channel()+":latest", data, defaultLatestTTL)
		pipe.Publish(ctx, "pub:"+t.Channel(), data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[redis] tick pipeline error (%d ticks): %v", len(ticks), err)
		if p.OnError != nil {
			p.OnError()
		}
		return
	}
	if p.OnPublish != nil {
		p.OnPublish(time.Since(start))
	}
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
