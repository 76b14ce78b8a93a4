package repository_test

import (
	"context"
	"errors"
	"testing"

	"polly-backend/models"
	"polly-backend/repository"
	"polly-backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertPollAndOptions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := repository.NewGormPollStore(db)
	ctx := context.Background()

	poll, err := store.InsertPoll(ctx, "Best editor?", "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, poll.ID)
	assert.Equal(t, "user-1", poll.UserID)

	opts, err := store.InsertOptions(ctx, []models.PollOption{
		{PollID: poll.ID, Text: "vim"},
		{PollID: poll.ID, Text: "emacs"},
	})
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.NotEmpty(t, opts[0].ID)
	assert.NotEqual(t, opts[0].ID, opts[1].ID)

	got, err := store.GetPoll(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, "Best editor?", got.Question)
	assert.ElementsMatch(t, []string{"vim", "emacs"}, testutil.OptionTexts(t, db, poll.ID))
}

func TestInsertOptionsEmpty(t *testing.T) {
	store := repository.NewGormPollStore(testutil.SetupTestDB(t))

	opts, err := store.InsertOptions(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, opts)
}

func TestPollOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := repository.NewGormPollStore(db)
	poll := testutil.CreatePoll(t, db, "owner", "Q?", "a")

	owner, err := store.PollOwner(context.Background(), poll.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner", owner)

	_, err = store.PollOwner(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateQuestion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := repository.NewGormPollStore(db)
	poll := testutil.CreatePoll(t, db, "owner", "Old?", "a")

	require.NoError(t, store.UpdateQuestion(context.Background(), poll.ID, "New?"))

	got, err := store.GetPoll(context.Background(), poll.ID)
	require.NoError(t, err)
	assert.Equal(t, "New?", got.Question)
}

func TestUpsertOptions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := repository.NewGormPollStore(db)
	ctx := context.Background()
	poll := testutil.CreatePoll(t, db, "owner", "Q?", "a", "b")

	err := store.UpsertOptions(ctx, poll.ID, []models.PollOption{
		{ID: poll.Options[0].ID, Text: "A"},
		{Text: "c"},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"A", "b", "c"}, testutil.OptionTexts(t, db, poll.ID))
}

func TestUpsertOptionsRejectsForeignID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := repository.NewGormPollStore(db)
	mine := testutil.CreatePoll(t, db, "owner", "Mine?", "a")
	theirs := testutil.CreatePoll(t, db, "other", "Theirs?", "x")

	err := store.UpsertOptions(context.Background(), mine.ID, []models.PollOption{
		{ID: theirs.Options[0].ID, Text: "stolen"},
	})
	assert.ErrorIs(t, err, repository.ErrForeignOption)
	assert.Equal(t, []string{"x"}, testutil.OptionTexts(t, db, theirs.ID))
}

func TestOptionIDsAndDeleteOptions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := repository.NewGormPollStore(db)
	ctx := context.Background()
	poll := testutil.CreatePoll(t, db, "owner", "Q?", "a", "b", "c")

	ids, err := store.OptionIDs(ctx, poll.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	require.NoError(t, store.DeleteOptions(ctx, []string{poll.Options[1].ID}))
	require.NoError(t, store.DeleteOptions(ctx, nil))

	assert.ElementsMatch(t, []string{"a", "c"}, testutil.OptionTexts(t, db, poll.ID))
}

func TestDeletePoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := repository.NewGormPollStore(db)
	ctx := context.Background()
	poll := testutil.CreatePoll(t, db, "owner", "Q?", "a", "b")

	require.NoError(t, store.DeletePoll(ctx, poll.ID))
	assert.Empty(t, testutil.OptionTexts(t, db, poll.ID))

	assert.ErrorIs(t, store.DeletePoll(ctx, poll.ID), repository.ErrNotFound)

	_, err := store.GetPoll(ctx, poll.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListPolls(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := repository.NewGormPollStore(db)

	polls, err := store.ListPolls(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, polls)
	assert.Empty(t, polls)

	testutil.CreatePoll(t, db, "u1", "First?", "a")
	testutil.CreatePoll(t, db, "u2", "Second?", "b", "c")

	polls, err = store.ListPolls(context.Background())
	require.NoError(t, err)
	require.Len(t, polls, 2)

	questions := []string{polls[0].Question, polls[1].Question}
	assert.ElementsMatch(t, []string{"First?", "Second?"}, questions)
	for _, p := range polls {
		if p.Question == "Second?" {
			assert.Len(t, p.Options, 2)
		}
	}
}

func TestTransactionRollsBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := repository.NewGormPollStore(db)
	ctx := context.Background()
	poll := testutil.CreatePoll(t, db, "owner", "Before?", "a")

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx repository.PollStore) error {
		if err := tx.UpdateQuestion(ctx, poll.ID, "After?"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.GetPoll(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, "Before?", got.Question)
}
