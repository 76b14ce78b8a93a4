package service_test

import (
	"context"
	"errors"
	"sync"

	"polly-backend/models"
	"polly-backend/repository"
)

var errInjected = errors.New("injected storage failure")

// faultStore fails the named store methods and delegates the rest
type faultStore struct {
	repository.PollStore
	fail  map[string]bool
	plain bool // run Transaction without a real transaction
}

func newFaultStore(inner repository.PollStore, methods ...string) *faultStore {
	fs := &faultStore{PollStore: inner, fail: map[string]bool{}}
	for _, m := range methods {
		fs.fail[m] = true
	}
	return fs
}

func (f *faultStore) Transaction(ctx context.Context, fn func(tx repository.PollStore) error) error {
	if f.plain {
		return fn(f)
	}
	return f.PollStore.Transaction(ctx, func(tx repository.PollStore) error {
		return fn(&faultStore{PollStore: tx, fail: f.fail})
	})
}

func (f *faultStore) InsertPoll(ctx context.Context, question, ownerID string) (*models.Poll, error) {
	if f.fail["InsertPoll"] {
		return nil, errInjected
	}
	return f.PollStore.InsertPoll(ctx, question, ownerID)
}

func (f *faultStore) PollOwner(ctx context.Context, pollID string) (string, error) {
	if f.fail["PollOwner"] {
		return "", errInjected
	}
	return f.PollStore.PollOwner(ctx, pollID)
}

func (f *faultStore) UpdateQuestion(ctx context.Context, pollID, question string) error {
	if f.fail["UpdateQuestion"] {
		return errInjected
	}
	return f.PollStore.UpdateQuestion(ctx, pollID, question)
}

func (f *faultStore) DeletePoll(ctx context.Context, pollID string) error {
	if f.fail["DeletePoll"] {
		return errInjected
	}
	return f.PollStore.DeletePoll(ctx, pollID)
}

func (f *faultStore) InsertOptions(ctx context.Context, options []models.PollOption) ([]models.PollOption, error) {
	if f.fail["InsertOptions"] {
		return nil, errInjected
	}
	return f.PollStore.InsertOptions(ctx, options)
}

func (f *faultStore) UpsertOptions(ctx context.Context, pollID string, options []models.PollOption) error {
	if f.fail["UpsertOptions"] {
		return errInjected
	}
	return f.PollStore.UpsertOptions(ctx, pollID, options)
}

func (f *faultStore) OptionIDs(ctx context.Context, pollID string) ([]string, error) {
	if f.fail["OptionIDs"] {
		return nil, errInjected
	}
	return f.PollStore.OptionIDs(ctx, pollID)
}

func (f *faultStore) DeleteOptions(ctx context.Context, ids []string) error {
	if f.fail["DeleteOptions"] {
		return errInjected
	}
	return f.PollStore.DeleteOptions(ctx, ids)
}

func (f *faultStore) ListPolls(ctx context.Context) ([]models.Poll, error) {
	if f.fail["ListPolls"] {
		return nil, errInjected
	}
	return f.PollStore.ListPolls(ctx)
}

func (f *faultStore) GetPoll(ctx context.Context, pollID string) (*models.Poll, error) {
	if f.fail["GetPoll"] {
		return nil, errInjected
	}
	return f.PollStore.GetPoll(ctx, pollID)
}

// recorder collects revalidated paths
type recorder struct {
	mu    sync.Mutex
	paths [][]string
}

func (r *recorder) Revalidate(ctx context.Context, paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, paths)
}

func (r *recorder) calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.paths...)
}
