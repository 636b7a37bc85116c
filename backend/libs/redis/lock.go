package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// ErrLockHeld is returned by Acquire when another holder owns the key.
var ErrLockHeld = errors.New("redis: lock held by another owner")

// Locker hands out expiring single-owner locks. Only the token returned on acquisition can
// release a key, so an expired holder never deletes its successor's lock.
type Locker struct {
	client redis.Cmdable
	script *redis.Script
}

// NewLocker returns a Locker backed by client.
func NewLocker(client redis.Cmdable) *Locker {
	return &Locker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
	}
}

// Acquire takes key for ttl and returns the owner token.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("redis: lock key is empty")
	}
	if ttl <= 0 {
		return "", errors.New("redis: lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrLockHeld
	}
	return token, nil
}

// Release drops key if it is still owned by token.
func (l *Locker) Release(ctx context.Context, key, token string) error {
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}
