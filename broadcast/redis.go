// Package broadcast pushes committed snapshots to subscribers over Redis.
//
// After every commit the latest snapshot is stored under <prefix>:snapshot:latest,
// its version under <prefix>:snapshot:version, and the JSON is published on
// the <prefix>:snapshot channel. Publication is best effort and ordered by
// version: a snapshot older than the last one published is dropped.
package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/warp/folio-engine/hotel"
)

// Connect creates a Redis client and checks it answers.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("broadcast: ping: %w", err)
	}

	return client, nil
}

// RedisPublisher publishes snapshots to Redis.
type RedisPublisher struct {
	client *redis.Client
	prefix string

	mu          sync.Mutex
	lastVersion hotel.Version
}

func NewRedisPublisher(client *redis.Client, prefix string) *RedisPublisher {
	if prefix == "" {
		prefix = "folio"
	}
	return &RedisPublisher{client: client, prefix: prefix}
}

func (p *RedisPublisher) Channel() string    { return p.prefix + ":snapshot" }
func (p *RedisPublisher) LatestKey() string  { return p.prefix + ":snapshot:latest" }
func (p *RedisPublisher) VersionKey() string { return p.prefix + ":snapshot:version" }

// Publish stores and broadcasts snap unless a newer version already went out.
func (p *RedisPublisher) Publish(ctx context.Context, snap hotel.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if snap.Version <= p.lastVersion {
		return nil
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("broadcast: encode snapshot: %w", err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, p.LatestKey(), payload, 0)
	pipe.Set(ctx, p.VersionKey(), uint64(snap.Version), 0)
	pipe.Publish(ctx, p.Channel(), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("broadcast: publish version %d: %w", snap.Version, err)
	}

	p.lastVersion = snap.Version
	return nil
}

// Latest returns the last stored snapshot. ok is false when none exists.
func (p *RedisPublisher) Latest(ctx context.Context) (snap hotel.Snapshot, ok bool, err error) {
	payload, err := p.client.Get(ctx, p.LatestKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return hotel.Snapshot{}, false, nil
	}
	if err != nil {
		return hotel.Snapshot{}, false, fmt.Errorf("broadcast: get latest: %w", err)
	}
	if err := json.Unmarshal(payload, &snap); err != nil {
		return hotel.Snapshot{}, false, fmt.Errorf("broadcast: decode snapshot: %w", err)
	}
	return snap, true, nil
}

// Subscribe returns a subscription on the snapshot channel.
func (p *RedisPublisher) Subscribe(ctx context.Context) *redis.PubSub {
	return p.client.Subscribe(ctx, p.Channel())
}
