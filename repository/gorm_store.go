package repository

import (
	"context"

	"polly-backend/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPollStore implements PollStore on top of gorm
type GormPollStore struct {
	db *gorm.DB
}

// NewGormPollStore creates a store backed by db
func NewGormPollStore(db *gorm.DB) *GormPollStore {
	return &GormPollStore{db: db}
}

// Transaction runs fn inside a database transaction
func (s *GormPollStore) Transaction(ctx context.Context, fn func(tx PollStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormPollStore{db: tx})
	})
}

// InsertPoll creates a poll
func (s *GormPollStore) InsertPoll(ctx context.Context, question, ownerID string) (*models.Poll, error) {
	poll := &models.Poll{Question: question, UserID: ownerID}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(poll).Error; err != nil {
		return nil, errors.Wrap(err, "insert poll")
	}
	return poll, nil
}

// PollOwner returns the owner of a poll
func (s *GormPollStore) PollOwner(ctx context.Context, pollID string) (string, error) {
	var poll models.Poll
	err := s.db.WithContext(ctx).Select("user_id").Where("id = ?", pollID).Take(&poll).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "select poll owner")
	}
	return poll.UserID, nil
}

// UpdateQuestion sets a new question on a poll
func (s *GormPollStore) UpdateQuestion(ctx context.Context, pollID, question string) error {
	err := s.db.WithContext(ctx).Model(&models.Poll{}).Where("id = ?", pollID).Update("question", question).Error
	return errors.Wrap(err, "update poll question")
}

// DeletePoll removes a poll. Options and votes follow through the cascade.
func (s *GormPollStore) DeletePoll(ctx context.Context, pollID string) error {
	res := s.db.WithContext(ctx).Where("id = ?", pollID).Delete(&models.Poll{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete poll")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertOptions creates options in one batch
func (s *GormPollStore) InsertOptions(ctx context.Context, options []models.PollOption) ([]models.PollOption, error) {
	if len(options) == 0 {
		return options, nil
	}
	if err := s.db.WithContext(ctx).Create(&options).Error; err != nil {
		return nil, errors.Wrap(err, "insert poll options")
	}
	return options, nil
}

// UpsertOptions inserts options or replaces the text of existing ones. Ids that
// already belong to a different poll are refused so an upsert cannot move them.
func (s *GormPollStore) UpsertOptions(ctx context.Context, pollID string, options []models.PollOption) error {
	if len(options) == 0 {
		return nil
	}

	ids := make([]string, len(options))
	for i := range options {
		options[i].PollID = pollID
		ids[i] = options[i].ID
	}

	db := s.db.WithContext(ctx)

	var foreign int64
	if err := db.Model(&models.PollOption{}).Where("id IN ? AND poll_id <> ?", ids, pollID).Count(&foreign).Error; err != nil {
		return errors.Wrap(err, "check option ownership")
	}
	if foreign > 0 {
		return ErrForeignOption
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "updated_at"}),
	}).Create(&options).Error
	return errors.Wrap(err, "upsert poll options")
}

// OptionIDs returns the ids of the options stored for a poll
func (s *GormPollStore) OptionIDs(ctx context.Context, pollID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.PollOption{}).Where("poll_id = ?", pollID).Pluck("id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "select poll option ids")
	}
	return ids, nil
}

// DeleteOptions removes options by id
func (s *GormPollStore) DeleteOptions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.PollOption{}).Error
	return errors.Wrap(err, "delete poll options")
}

// ListPolls returns all polls, newest first
func (s *GormPollStore) ListPolls(ctx context.Context) ([]models.Poll, error) {
	polls := []models.Poll{}
	err := s.db.WithContext(ctx).
		Preload("Options", orderOptions).
		Order("created_at desc").
		Find(&polls).Error
	if err != nil {
		return nil, errors.Wrap(err, "select polls")
	}
	return polls, nil
}

// GetPoll returns a poll and its options
func (s *GormPollStore) GetPoll(ctx context.Context, pollID string) (*models.Poll, error) {
	var poll models.Poll
	err := s.db.WithContext(ctx).Preload("Options", orderOptions).Where("id = ?", pollID).Take(&poll).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select poll")
	}
	return &poll, nil
}

func orderOptions(db *gorm.DB) *gorm.DB {
	return db.Order("created_at asc")
}
