package cache

import (
	"context"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// LockService hands out Redis-backed mutexes shared by every server instance
type LockService struct {
	rs *redsync.Redsync
}

// NewLockService creates a lock service on top of client
func NewLockService(client redis.UniversalClient) *LockService {
	return &LockService{rs: redsync.New(goredis.NewPool(client))}
}

// WithLock runs action while holding the named lock
func (s *LockService) WithLock(ctx context.Context, name string, expiry time.Duration, action func() error) error {
	mutex := s.rs.NewMutex(name,
		redsync.WithExpiry(expiry),
		redsync.WithTries(5),
		redsync.WithRetryDelay(50*time.Millisecond),
		redsync.WithDriftFactor(0.01),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return ErrLockNotAcquired
	}
	defer func() {
		_, _ = mutex.UnlockContext(context.Background())
	}()

	return action()
}
