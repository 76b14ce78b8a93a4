package repository

import (
	"context"
	"errors"

	"polly-backend/models"
)

var (
	// ErrNotFound is returned when a single-row lookup finds nothing
	ErrNotFound = errors.New("record not found")

	// ErrForeignOption is returned when an upsert names an option id owned by another poll
	ErrForeignOption = errors.New("option belongs to another poll")
)

// PollStore is the persistence gateway the poll service works against.
// Each call is atomic on its own; Transaction groups several calls.
type PollStore interface {
	// Transaction runs fn against a store bound to one transaction.
	// Stores without transaction support run fn directly.
	Transaction(ctx context.Context, fn func(tx PollStore) error) error

	// InsertPoll creates a poll and returns it with its generated id
	InsertPoll(ctx context.Context, question, ownerID string) (*models.Poll, error)
	// PollOwner returns the owner id of a poll
	PollOwner(ctx context.Context, pollID string) (string, error)
	// UpdateQuestion replaces the question text of a poll
	UpdateQuestion(ctx context.Context, pollID, question string) error
	// DeletePoll removes a poll; ErrNotFound when nothing was deleted
	DeletePoll(ctx context.Context, pollID string) error

	// InsertOptions batch-inserts options and returns them with their ids
	InsertOptions(ctx context.Context, options []models.PollOption) ([]models.PollOption, error)
	// UpsertOptions inserts or replaces options of pollID keyed by option id
	UpsertOptions(ctx context.Context, pollID string, options []models.PollOption) error
	// OptionIDs lists the ids of all options stored for a poll
	OptionIDs(ctx context.Context, pollID string) ([]string, error)
	// DeleteOptions removes the options whose id is in ids
	DeleteOptions(ctx context.Context, ids []string) error

	// ListPolls returns every poll with its options, newest first
	ListPolls(ctx context.Context) ([]models.Poll, error)
	// GetPoll returns one poll with its options
	GetPoll(ctx context.Context, pollID string) (*models.Poll, error)
}
