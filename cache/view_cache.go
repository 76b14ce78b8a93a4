package cache

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"polly-backend/logging"

	"github.com/redis/go-redis/v9"
)

const (
	lockExpiry = 5 * time.Second
	// generation counters only need to outlive fills in flight
	generationExpiry = 24 * time.Hour
)

// Locker serializes cache fills for one key
type Locker interface {
	WithLock(ctx context.Context, name string, expiry time.Duration, action func() error) error
}

// ViewCache stores rendered read models under their view path (for example
// "/polls" or "/polls/<id>") and drops them when a revalidation names the path.
type ViewCache struct {
	client RedisClient
	locks  Locker
	ttl    time.Duration
}

// NewViewCache creates a view cache. A nil client disables caching and every
// Fetch goes straight to the loader. locks may be nil.
func NewViewCache(client RedisClient, locks Locker, ttl time.Duration) *ViewCache {
	return &ViewCache{client: client, locks: locks, ttl: ttl}
}

// Key returns the Redis key for a view path
func Key(path string) string {
	return "view:" + path
}

// GenerationKey returns the Redis key of the revalidation counter for a view path
func GenerationKey(path string) string {
	return "view_gen:" + path
}

// Fetch returns the cached value for path or loads, stores and returns it.
// Loader errors are returned as is and nothing is cached for them.
func Fetch[T any](ctx context.Context, c *ViewCache, path string, load func(context.Context) (T, error)) (T, error) {
	if c == nil || c.client == nil {
		return load(ctx)
	}

	key := Key(path)
	if v, ok := lookup[T](ctx, c, key); ok {
		return v, nil
	}

	// A revalidation that lands while load runs bumps the generation. The
	// loaded value may predate that write, so it is returned but not kept.
	fill := func() (T, error) {
		gen, ok := c.generation(ctx, path)
		v, err := load(ctx)
		if err != nil || !ok {
			return v, err
		}
		if now, ok := c.generation(ctx, path); !ok || now != gen {
			return v, nil
		}
		c.store(ctx, key, v)
		if now, ok := c.generation(ctx, path); !ok || now != gen {
			c.drop(ctx, key)
		}
		return v, nil
	}

	if c.locks == nil {
		return fill()
	}

	var result T
	err := c.locks.WithLock(ctx, "cache_lock:"+key, lockExpiry, func() error {
		// another instance may have filled it while we waited
		if v, ok := lookup[T](ctx, c, key); ok {
			result = v
			return nil
		}
		v, err := fill()
		result = v
		return err
	})
	if errors.Is(err, ErrLockNotAcquired) {
		logging.Module("cache").WithField("key", key).Warn("cache lock busy, loading without lock")
		return load(ctx)
	}
	return result, err
}

// Revalidate bumps the generation of paths and drops their cached views.
// The bump comes first so fills that loaded before it never keep their value.
func (c *ViewCache) Revalidate(ctx context.Context, paths ...string) {
	if c == nil || c.client == nil || len(paths) == 0 {
		return
	}

	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = Key(p)

		genKey := GenerationKey(p)
		if err := c.client.Incr(ctx, genKey).Err(); err != nil {
			logging.Module("cache").WithError(err).WithField("key", genKey).Error("failed to bump view generation")
			continue
		}
		c.client.Expire(ctx, genKey, generationExpiry)
	}

	c.drop(ctx, keys...)
}

func (c *ViewCache) drop(ctx context.Context, keys ...string) {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logging.Module("cache").WithError(err).WithField("keys", keys).Error("failed to drop cached views")
	}
}

// generation reads the revalidation counter of path. A missing counter is
// generation zero. ok is false when the counter could not be read.
func (c *ViewCache) generation(ctx context.Context, path string) (int64, bool) {
	gen, err := c.client.Get(ctx, GenerationKey(path)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		logging.Module("cache").WithError(err).WithField("path", path).Warn("view generation read failed, not caching")
		return 0, false
	}
	return gen, true
}

func lookup[T any](ctx context.Context, c *ViewCache, key string) (T, bool) {
	var v T

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.Module("cache").WithError(err).WithField("key", key).Warn("cache read failed")
		}
		return v, false
	}

	if err := json.Unmarshal(data, &v); err != nil {
		logging.Module("cache").WithError(err).WithField("key", key).Warn("discarding unreadable cache entry")
		return v, false
	}
	return v, true
}

func (c *ViewCache) store(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Module("cache").WithError(err).WithField("key", key).Error("failed to encode cache entry")
		return
	}

	if err := c.client.Set(ctx, key, data, c.expiration()).Err(); err != nil {
		logging.Module("cache").WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

// expiration adds up to 10% jitter so entries written together do not expire together
func (c *ViewCache) expiration() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitter := int64(c.ttl / 10)
	if jitter <= 0 {
		return c.ttl
	}
	return c.ttl + time.Duration(rand.Int63n(jitter))
}
