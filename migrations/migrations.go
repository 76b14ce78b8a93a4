package migrations

import (
	"fmt"

	"polly-backend/logging"
	"polly-backend/models"

	"gorm.io/gorm"
)

// Run brings the schema up to date. Tables are migrated parent first so the
// cascade constraints on options and votes can reference them.
func Run(db *gorm.DB) error {
	log := logging.Module("migrations")

	if err := db.AutoMigrate(&models.User{}, &models.Poll{}, &models.PollOption{}, &models.Vote{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := backfillOptionUpdatedAt(db); err != nil {
		return err
	}

	log.Info("schema is up to date")
	return nil
}

// backfillOptionUpdatedAt fills updated_at on option rows imported from the
// previous schema, which only tracked created_at. AutoMigrate adds the column
// but leaves it NULL on those rows.
func backfillOptionUpdatedAt(db *gorm.DB) error {
	log := logging.Module("migrations")

	res := db.Model(&models.PollOption{}).
		Where("updated_at IS NULL").
		UpdateColumn("updated_at", gorm.Expr("created_at"))
	if res.Error != nil {
		return fmt.Errorf("backfill poll_options.updated_at: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		log.WithField("rows", res.RowsAffected).Info("backfilled poll_options.updated_at")
	}
	return nil
}
