// Package lock provides a Redis-backed lease used to allow at most one generation run
// per property at a time.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockNotAcquired is returned when another holder owns the lease.
	ErrLockNotAcquired = errors.New("lock not acquired")
	// ErrLockNotHeld is returned when releasing a lease that expired or changed hands.
	ErrLockNotHeld = errors.New("lock not held")
)

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address must be provided")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}
	slog.Info("Connected to Redis.", "addr", cfg.Addr)
	return rdb, nil
}

// Locker hands out leases keyed under a common prefix.
type Locker struct {
	rdb       *redis.Client
	keyPrefix string
}

func NewLocker(rdb *redis.Client, keyPrefix string) *Locker {
	if keyPrefix == "" {
		keyPrefix = "lock:"
	}
	return &Locker{rdb: rdb, keyPrefix: keyPrefix}
}

// Lease is a held lock. It expires on its own after its TTL if never released.
type Lease struct {
	rdb    *redis.Client
	key    string
	holder string
}

// Acquire takes the lease with SET NX PX. It does not wait for a current holder.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	lockKey := l.keyPrefix + key
	holder := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, lockKey, holder, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", lockKey, err)
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}
	slog.Debug("Acquired lock.", "key", lockKey, "ttl", ttl.String())
	return &Lease{rdb: l.rdb, key: lockKey, holder: holder}, nil
}

// Lease acquires key and returns its release function.
func (l *Locker) Lease(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lease, err := l.Acquire(ctx, key, ttl)
	if err != nil {
		return nil, err
	}
	return lease.Release, nil
}

// Release deletes the key only if this lease still owns it.
func (lease *Lease) Release(ctx context.Context) error {
	result, err := releaseScript.Run(ctx, lease.rdb, []string{lease.key}, lease.holder).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", lease.key, err)
	}
	if result == 0 {
		return ErrLockNotHeld
	}
	slog.Debug("Released lock.", "key", lease.key)
	return nil
}
