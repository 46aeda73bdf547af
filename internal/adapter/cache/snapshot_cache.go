// Package cache is the Redis-backed market-data snapshot cache: it
// subscribes to the market-data topic's depth events and mirrors the
// latest snapshot per symbol so a read replica or a late-joining
// dashboard can fetch current depth without going through the engine
// (spec §1 boundary collaborator; persistence/caching are explicitly
// out of the core's scope).
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coreexchange/matching-engine/internal/domain"
	"github.com/coreexchange/matching-engine/internal/events"
)

// SnapshotCache mirrors MarketDataSnapshot values into Redis.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache constructs a SnapshotCache against a Redis instance at
// addr, with entries expiring after ttl.
func NewSnapshotCache(addr, password string, db int, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		ttl:    ttl,
	}
}

func snapshotKey(symbol string) string { return "book:snapshot:" + symbol }

// Set stores the latest snapshot for symbol.
func (c *SnapshotCache) Set(ctx context.Context, snap domain.MarketDataSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey(snap.Symbol), b, c.ttl).Err()
}

// Get returns the last cached snapshot for symbol, or (nil, nil) if
// nothing has been cached yet.
func (c *SnapshotCache) Get(ctx context.Context, symbol string) (*domain.MarketDataSnapshot, error) {
	b, err := c.client.Get(ctx, snapshotKey(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap domain.MarketDataSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Run drains sub, caching every depth event it observes until ctx is
// cancelled or the subscriber channel closes.
func (c *SnapshotCache) Run(ctx context.Context, sub *events.Subscriber[events.MarketDataEvent], onErr func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Chan():
			if !ok {
				return
			}
			if ev.Depth == nil {
				continue
			}
			if err := c.Set(ctx, *ev.Depth); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}
