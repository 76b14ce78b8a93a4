package cache

import "errors"

var (
	// ErrRedisNotAvailable is returned when a Redis-backed feature runs without a client
	ErrRedisNotAvailable = errors.New("redis not available")

	// ErrLockNotAcquired is returned when a distributed lock could not be taken
	ErrLockNotAcquired = errors.New("could not acquire distributed lock")
)
