package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// registryKeyPrefix matches the nozzle cache keys the ledger reads.
	registryKeyPrefix = "registry:nozzle:"
	// Tombstone is the value the ledger reads as "nozzle deactivated".
	Tombstone = "deactivated"
	// TombstoneTTL must outlast any ledger lookup still in flight at deactivation time.
	TombstoneTTL = time.Hour
)

// RegistryCache marks ledger nozzle cache entries as deactivated.
type RegistryCache struct {
	client redis.Cmdable
}

// NewRegistryCache returns redis-backed invalidator.
func NewRegistryCache(client redis.Cmdable) *RegistryCache {
	return &RegistryCache{client: client}
}

// Key returns the cache key of a nozzle.
func Key(nozzleID string) string {
	return registryKeyPrefix + nozzleID
}

// Invalidate replaces any cached nozzle with a tombstone. Deleting the key instead would let a
// concurrent ledger lookup write the active nozzle back.
func (c *RegistryCache) Invalidate(ctx context.Context, nozzleID string) error {
	return c.client.Set(ctx, Key(nozzleID), Tombstone, TombstoneTTL).Err()
}
