// Package idempotency replays responses of repeated POST /readings calls carrying the same
// Idempotency-Key.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libredis "fuelflow/backend/libs/redis"
)

const (
	keyPrefix  = "ledger:idempotency:"
	lockPrefix = "ledger:idempotency:lock:"

	defaultTTL     = 24 * time.Hour
	defaultLockTTL = 30 * time.Second
	releaseTimeout = 2 * time.Second
)

var (
	// ErrInProgress is returned while another request holds the same key.
	ErrInProgress = errors.New("idempotency: request already in progress")
	// ErrKeyReused is returned when a key is presented again with a different request.
	ErrKeyReused = errors.New("idempotency: key reused with a different request")
)

// Response is the cached outcome of a request.
type Response struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// entry is the stored form of a Response.
type entry struct {
	Fingerprint string `json:"fingerprint,omitempty"`
	Response
}

// Fingerprint hashes the fields that identify a request.
func Fingerprint(fields ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(fields, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Store keeps responses in Redis and serializes requests sharing a key.
type Store struct {
	client  redis.Cmdable
	locker  *libredis.Locker
	ttl     time.Duration
	lockTTL time.Duration
	logger  *zap.Logger
}

// NewStore returns redis-backed store.
func NewStore(client redis.Cmdable, ttl, lockTTL time.Duration, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &Store{
		client:  client,
		locker:  libredis.NewLocker(client),
		ttl:     ttl,
		lockTTL: lockTTL,
		logger:  logger,
	}
}

func (s *Store) key(scope, key string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, scope, key)
}

func (s *Store) lockKey(scope, key string) string {
	return fmt.Sprintf("%s%s:%s", lockPrefix, scope, key)
}

// Do runs fn once per (scope, key). A stored response is returned with replayed set, provided
// fingerprint matches the one stored with it; otherwise ErrKeyReused. Only 2xx responses are
// stored, so a rejected request may be retried with the same key. Errors are returned only
// before fn runs.
func (s *Store) Do(ctx context.Context, scope, key, fingerprint string, fn func() Response) (resp Response, replayed bool, err error) {
	lockKey := s.lockKey(scope, key)
	token, err := s.locker.Acquire(ctx, lockKey, s.lockTTL)
	if err != nil {
		if errors.Is(err, libredis.ErrLockHeld) {
			return Response{}, false, ErrInProgress
		}
		return Response{}, false, fmt.Errorf("idempotency: lock: %w", err)
	}
	defer s.release(lockKey, token)

	cached, err := s.get(ctx, scope, key)
	if err != nil {
		return Response{}, false, err
	}
	if cached != nil {
		if cached.Fingerprint != "" && cached.Fingerprint != fingerprint {
			return Response{}, false, ErrKeyReused
		}
		return cached.Response, true, nil
	}

	resp = fn()
	if resp.Status >= 200 && resp.Status < 300 {
		if err := s.save(ctx, scope, key, entry{Fingerprint: fingerprint, Response: resp}); err != nil {
			s.logger.Warn("idempotency save failed", zap.String("scope", scope), zap.Error(err))
		}
	}
	return resp, false, nil
}

func (s *Store) get(ctx context.Context, scope, key string) (*entry, error) {
	raw, err := s.client.Get(ctx, s.key(scope, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("idempotency: get: %w", err)
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		s.logger.Warn("discarding corrupt idempotency entry", zap.String("scope", scope))
		return nil, nil
	}
	return &e, nil
}

func (s *Store) save(ctx context.Context, scope, key string, e entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(scope, key), data, s.ttl).Err()
}

func (s *Store) release(lockKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := s.locker.Release(ctx, lockKey, token); err != nil {
		s.logger.Warn("idempotency lock release failed", zap.Error(err))
	}
}
