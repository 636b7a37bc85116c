// Package registry resolves nozzles with a Redis read-through cache in front of the database.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fuelflow/backend/services/ledger-service/internal/models"
	"fuelflow/backend/services/ledger-service/internal/repository"
)

const (
	// KeyPrefix is shared with station-service, which overwrites entries with Tombstone on
	// deactivation.
	KeyPrefix = "registry:nozzle:"
	// Tombstone marks a deactivated nozzle.
	Tombstone = "deactivated"
)

// CachedResolver caches positive lookups only, so newly provisioned nozzles are visible at once.
// A miss is written back with SET NX, so a resolve that read the database before a deactivation
// cannot replace the tombstone written by it. Cache errors fall through to the wrapped resolver.
type CachedResolver struct {
	next   repository.NozzleResolver
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedResolver wraps next.
func NewCachedResolver(next repository.NozzleResolver, client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *CachedResolver {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedResolver{next: next, client: client, ttl: ttl, logger: logger}
}

// Key returns the cache key of a nozzle.
func Key(nozzleID string) string {
	return KeyPrefix + nozzleID
}

// ResolveNozzle implements repository.NozzleResolver.
func (c *CachedResolver) ResolveNozzle(ctx context.Context, nozzleID string) (*models.NozzleRef, error) {
	raw, err := c.client.Get(ctx, Key(nozzleID)).Bytes()
	corrupt := false
	switch {
	case err == nil && string(raw) == Tombstone:
		return nil, repository.ErrNozzleNotFound
	case err == nil:
		var ref models.NozzleRef
		if jsonErr := json.Unmarshal(raw, &ref); jsonErr == nil {
			return &ref, nil
		}
		c.logger.Warn("discarding corrupt registry cache entry", zap.String("nozzle_id", nozzleID))
		corrupt = true
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("registry cache read failed", zap.String("nozzle_id", nozzleID), zap.Error(err))
	}

	ref, err := c.next.ResolveNozzle(ctx, nozzleID)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(ref)
	if err == nil {
		if corrupt {
			err = c.client.Set(ctx, Key(nozzleID), data, c.ttl).Err()
		} else {
			err = c.client.SetNX(ctx, Key(nozzleID), data, c.ttl).Err()
		}
	}
	if err != nil {
		c.logger.Warn("registry cache write failed", zap.String("nozzle_id", nozzleID), zap.Error(err))
	}
	return ref, nil
}
