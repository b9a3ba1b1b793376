package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// LockRepository provides short-lived distributed locks on Redis. Without a
// client every acquisition succeeds and locking is left to the caller.
type LockRepository struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewLockRepository constructs a lock repository. client may be nil.
func NewLockRepository(client *redis.Client, prefix string, logger *zap.Logger) *LockRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LockRepository{client: client, prefix: prefix, logger: logger}
}

// Acquire tries to take the lock for ttl. It returns the token needed to
// release it, or an empty token when the lock is held elsewhere.
func (r *LockRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	if r.client == nil {
		return token, nil
	}
	ok, err := r.client.SetNX(ctx, r.prefix+key, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// Release drops the lock if it is still held with token.
func (r *LockRepository) Release(ctx context.Context, key, token string) error {
	if r.client == nil || token == "" {
		return nil
	}
	if err := releaseScript.Run(ctx, r.client, []string{r.prefix + key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis release %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *LockRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
