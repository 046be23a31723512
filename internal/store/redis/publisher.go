// Package redis publishes pipeline output to Redis Streams and stores
// indicator engine checkpoints for warm restarts.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"fvgtrader/internal/model"
)

const (
	signalStream    = "fvg:signals"
	zoneEventStream = "fvg:zone_events"
	checkpointKey   = "fvg:checkpoint"

	// Stream trimming: bounded history, approximate MAXLEN for cheap trims.
	streamMaxLen = 10000

	checkpointTTL = 24 * time.Hour
)

// Config configures the Redis publisher.
type Config struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher writes signals, zone events, and checkpoints to Redis.
type Publisher struct {
	client *goredis.Client
}

// New creates a Publisher and pings the server.
func New(cfg Config) (*Publisher, error) {
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

// PublishSignal appends an emitted signal to the signal stream.
func (p *Publisher) PublishSignal(ctx context.Context, sig model.TradingSignal) error {
	err := p.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: signalStream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"id":         sig.ID,
			"zone_id":    sig.ZoneID,
			"symbol":     sig.Symbol,
			"timeframe":  sig.Timeframe,
			"direction":  string(sig.Direction),
			"entry":      sig.EntryPrice,
			"current":    sig.CurrentPrice,
			"strength":   sig.Strength,
			"confidence": sig.Confidence,
			"ts":         sig.TS.Unix(),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis xadd signal: %w", err)
	}
	return nil
}

// PublishZoneEvent appends a zone lifecycle event to the zone stream.
func (p *Publisher) PublishZoneEvent(ctx context.Context, event string, zone model.Zone) error {
	err := p.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: zoneEventStream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"event":    event,
			"zone_id":  zone.ID,
			"symbol":   zone.Symbol,
			"side":     string(zone.Side),
			"top":      zone.Top,
			"bottom":   zone.Bottom,
			"strength": zone.Strength,
			"quality":  string(zone.Quality),
			"state":    string(zone.State),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis xadd zone event: %w", err)
	}
	return nil
}

// SaveSnapshotJSON stores a JSON-encoded indicator engine checkpoint.
func (p *Publisher) SaveSnapshotJSON(ctx context.Context, data []byte) error {
	if err := p.client.Set(ctx, checkpointKey, data, checkpointTTL).Err(); err != nil {
		return fmt.Errorf("redis set checkpoint: %w", err)
	}
	return nil
}

// ReadLatestSnapshotJSON loads the stored checkpoint. Returns nil, nil when
// no checkpoint exists.
func (p *Publisher) ReadLatestSnapshotJSON(ctx context.Context) ([]byte, error) {
	data, err := p.client.Get(ctx, checkpointKey).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get checkpoint: %w", err)
	}
	return data, nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
