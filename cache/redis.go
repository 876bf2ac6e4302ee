package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/analytics/config"
)

// releaseScript deletes the lock only when it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

const lockRetryInterval = 50 * time.Millisecond

// RedisLocker is a Locker shared by every replica, backed by SET NX PX
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisClient connects to Redis and checks the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}
	return client, nil
}

// NewRedisLocker creates a locker. ttl bounds how long a crashed holder
// keeps a key; wait bounds how long Lock retries.
func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, wait: wait}
}

// NewLocker returns a Redis locker when Redis is enabled and reachable,
// otherwise an in-process one
func NewLocker(cfg config.RedisConfig) Locker {
	if !cfg.Enabled {
		return NewLocalLocker()
	}
	client, err := NewRedisClient(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis, falling back to in-process locks")
		return NewLocalLocker()
	}
	return NewRedisLocker(client, cfg.LockTTL, cfg.LockWait)
}

// Lock acquires key, retrying until the wait budget or ctx runs out
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := LockKey(key)
	token := uuid.New().String()

	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, errors.Wrap(err, "failed to acquire lock")
		}
		if ok {
			return func() {
				// the caller's ctx may be gone by now
				releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := releaseScript.Run(releaseCtx, l.client, []string{lockKey}, token).Err(); err != nil {
					log.Warn().Err(err).Str("key", lockKey).Msg("Failed to release lock")
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ErrLockTimeout, "key %s", key)
		case <-ticker.C:
		}
	}
}

// LockKey generates the Redis key guarding an event import
func LockKey(eventID string) string {
	return fmt.Sprintf("analytics:import-lock:%s", eventID)
}
