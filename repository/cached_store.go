package repository

import (
	"context"

	"polly-backend/cache"
	"polly-backend/models"
)

// CachedPollStore serves ListPolls and GetPoll through the view cache and
// passes every other call to the wrapped store. Entries are dropped by
// revalidation after writes, not by the store itself.
type CachedPollStore struct {
	PollStore
	views *cache.ViewCache
}

// NewCachedPollStore wraps store with views. A nil or disabled cache makes
// it a plain pass-through.
func NewCachedPollStore(store PollStore, views *cache.ViewCache) *CachedPollStore {
	return &CachedPollStore{PollStore: store, views: views}
}

// Transaction runs fn against the uncached store so reads see the transaction's own writes
func (s *CachedPollStore) Transaction(ctx context.Context, fn func(tx PollStore) error) error {
	return s.PollStore.Transaction(ctx, fn)
}

// ListPolls returns the cached poll list or loads it
func (s *CachedPollStore) ListPolls(ctx context.Context) ([]models.Poll, error) {
	return cache.Fetch(ctx, s.views, models.PollsPath, s.PollStore.ListPolls)
}

// GetPoll returns the cached poll or loads it. Missing polls are not cached.
func (s *CachedPollStore) GetPoll(ctx context.Context, pollID string) (*models.Poll, error) {
	return cache.Fetch(ctx, s.views, models.PollPath(pollID), func(ctx context.Context) (*models.Poll, error) {
		return s.PollStore.GetPoll(ctx, pollID)
	})
}
