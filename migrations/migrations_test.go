package migrations_test

import (
	"testing"

	"polly-backend/migrations"
	"polly-backend/models"
	"polly-backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)

	require.NoError(t, migrations.Run(db))

	for _, table := range []interface{}{&models.User{}, &models.Poll{}, &models.PollOption{}, &models.Vote{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
}

func TestDeletingPollCascadesToOptionsAndVotes(t *testing.T) {
	db := testutil.SetupTestDB(t)

	poll := testutil.CreatePoll(t, db, "owner-1", "Tabs or spaces?", "Tabs", "Spaces")
	vote := models.Vote{UserID: "voter-1", PollID: poll.ID, PollOptionID: poll.Options[0].ID}
	require.NoError(t, db.Create(&vote).Error)

	require.NoError(t, db.Delete(&models.Poll{}, "id = ?", poll.ID).Error)

	var options, votes int64
	db.Model(&models.PollOption{}).Where("poll_id = ?", poll.ID).Count(&options)
	db.Model(&models.Vote{}).Where("poll_id = ?", poll.ID).Count(&votes)
	assert.Zero(t, options)
	assert.Zero(t, votes)
}

func TestDeletingOptionCascadesToVotes(t *testing.T) {
	db := testutil.SetupTestDB(t)

	poll := testutil.CreatePoll(t, db, "owner-1", "Coffee?", "Yes", "No")
	vote := models.Vote{UserID: "voter-1", PollID: poll.ID, PollOptionID: poll.Options[1].ID}
	require.NoError(t, db.Create(&vote).Error)

	require.NoError(t, db.Delete(&models.PollOption{}, "id = ?", poll.Options[1].ID).Error)

	var votes int64
	db.Model(&models.Vote{}).Where("id = ?", vote.ID).Count(&votes)
	assert.Zero(t, votes)
}

func TestOptionRejectsUnknownPoll(t *testing.T) {
	db := testutil.SetupTestDB(t)

	err := db.Create(&models.PollOption{PollID: "missing", Text: "orphan"}).Error
	assert.Error(t, err)
}

func TestRunBackfillsOptionUpdatedAt(t *testing.T) {
	db := testutil.SetupTestDB(t)

	poll := testutil.CreatePoll(t, db, "owner-1", "Legacy?", "Old")
	optionID := poll.Options[0].ID
	require.NoError(t, db.Exec("UPDATE poll_options SET updated_at = NULL WHERE id = ?", optionID).Error)

	require.NoError(t, migrations.Run(db))

	var missing int64
	db.Model(&models.PollOption{}).Where("id = ? AND updated_at IS NULL", optionID).Count(&missing)
	assert.Zero(t, missing)

	var stored models.PollOption
	require.NoError(t, db.First(&stored, "id = ?", optionID).Error)
	assert.True(t, stored.UpdatedAt.Equal(stored.CreatedAt))
}
