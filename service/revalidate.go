package service

import (
	"context"

	"polly-backend/models"
)

// Revalidator is told which views went stale after a successful mutation
type Revalidator interface {
	Revalidate(ctx context.Context, paths ...string)
}

// Revalidators fans a revalidation out to several receivers
type Revalidators []Revalidator

// Revalidate forwards paths to every non-nil receiver in order
func (r Revalidators) Revalidate(ctx context.Context, paths ...string) {
	for _, v := range r {
		if v != nil {
			v.Revalidate(ctx, paths...)
		}
	}
}

type noopRevalidator struct{}

func (noopRevalidator) Revalidate(context.Context, ...string) {}

func pollViews(id string) []string {
	return []string{models.PollsPath, models.PollPath(id), models.PollEditPath(id)}
}
