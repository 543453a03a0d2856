// Package lock provides a Redis-backed advisory lock keyed by the resource
// being worked on.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisGuard implements a SETNX lock with a TTL and token-checked release.
// Used by the waitlist coordinator to dedupe concurrent fill runs for the
// same cancellation.
type RedisGuard struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisGuard wraps a Redis client.
func NewRedisGuard(rdb *redis.Client, log zerolog.Logger) *RedisGuard {
	return &RedisGuard{rdb: rdb, log: log}
}

// TryLock attempts to acquire the lock. Returns the token needed to release
// it; acquired=false means another holder owns the key.
func (g *RedisGuard) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, string, error) {
	token := uuid.NewString()
	acquired, err := g.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, "", fmt.Errorf("setnx %s: %w", key, err)
	}
	if !acquired {
		return false, "", nil
	}
	return true, token, nil
}

// Unlock releases the lock only if the stored token matches, so an expired
// lock re-acquired by someone else is never stolen back.
func (g *RedisGuard) Unlock(ctx context.Context, key, token string) error {
	stored, err := g.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already expired
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if stored != token {
		g.log.Warn().Str("key", key).Msg("lock token mismatch, not releasing")
		return nil
	}
	if err := g.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}
