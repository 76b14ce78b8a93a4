package testutil

import (
	"testing"

	"polly-backend/database"
	"polly-backend/migrations"
	"polly-backend/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory SQLite database with the full schema.
// Each call gets its own database so tests can run in parallel.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := database.SQLiteDSN("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := migrations.Run(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

// CreatePoll inserts a poll with the given option texts directly, bypassing the service
func CreatePoll(t *testing.T, db *gorm.DB, ownerID, question string, options ...string) models.Poll {
	t.Helper()

	poll := models.Poll{Question: question, UserID: ownerID}
	for _, text := range options {
		poll.Options = append(poll.Options, models.PollOption{Text: text})
	}
	if err := db.Create(&poll).Error; err != nil {
		t.Fatalf("Failed to create poll: %v", err)
	}
	return poll
}

// OptionTexts returns the stored option texts of a poll
func OptionTexts(t *testing.T, db *gorm.DB, pollID string) []string {
	t.Helper()

	var texts []string
	if err := db.Model(&models.PollOption{}).Where("poll_id = ?", pollID).Pluck("text", &texts).Error; err != nil {
		t.Fatalf("Failed to load options: %v", err)
	}
	return texts
}
