package cache

import (
	"context"
	"fmt"
	"time"

	"polly-backend/config"
	"polly-backend/logging"

	"github.com/redis/go-redis/v9"
)

// Connect opens a Redis client and pings it. Callers fall back to the
// in-process implementations when it returns an error.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Disabled {
		return nil, ErrRedisNotAvailable
	}

	log := logging.Module("cache")
	log.WithField("addr", cfg.Addr).Info("connecting to redis")

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 3 * time.Second,
		ReadTimeout: 3 * time.Second,
		PoolSize:    10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrRedisNotAvailable, err)
	}

	log.Info("redis connection ready")
	return client, nil
}
