package service

import (
	"context"
	"errors"

	"polly-backend/logging"
	"polly-backend/models"
	"polly-backend/repository"

	"github.com/sirupsen/logrus"
)

// PollService creates, reads, edits and deletes polls on behalf of an identity.
// A nil identity means the caller is anonymous.
type PollService interface {
	CreatePoll(ctx context.Context, submitter *models.Identity, question string, optionTexts []string) (string, error)
	GetPolls(ctx context.Context, viewer *models.Identity) ([]PollView, error)
	GetPoll(ctx context.Context, id string) (*models.Poll, error)
	UpdatePoll(ctx context.Context, id string, submitter *models.Identity, question string, options []OptionInput) error
	DeletePoll(ctx context.Context, id string, submitter *models.Identity) error
}

// PollView is a poll as listed to a viewer
type PollView struct {
	models.Poll
	IsOwner bool `json:"isOwner"`
}

// PollServiceImpl implements PollService on a PollStore
type PollServiceImpl struct {
	store       repository.PollStore
	revalidator Revalidator
	log         *logrus.Entry
}

// NewPollService creates the poll service. revalidator may be nil.
func NewPollService(store repository.PollStore, revalidator Revalidator) *PollServiceImpl {
	if revalidator == nil {
		revalidator = noopRevalidator{}
	}
	return &PollServiceImpl{
		store:       store,
		revalidator: revalidator,
		log:         logging.Module("service"),
	}
}

// CreatePoll stores a poll and its non-blank options and returns the poll id
func (s *PollServiceImpl) CreatePoll(ctx context.Context, submitter *models.Identity, question string, optionTexts []string) (string, error) {
	if submitter == nil {
		return "", ErrLoginRequired
	}

	texts := nonBlank(optionTexts)
	var pollID string

	err := s.store.Transaction(ctx, func(tx repository.PollStore) error {
		poll, err := tx.InsertPoll(ctx, question, submitter.UserID)
		if err != nil {
			s.log.WithError(err).Error("failed to insert poll")
			return ErrCreatePoll
		}
		pollID = poll.ID

		if len(texts) == 0 {
			return nil
		}

		options := make([]models.PollOption, len(texts))
		for i, text := range texts {
			options[i] = models.PollOption{PollID: poll.ID, Text: text}
		}
		if _, err := tx.InsertOptions(ctx, options); err != nil {
			s.log.WithError(err).WithField("poll_id", poll.ID).Error("failed to insert poll options")
			return ErrCreateOptions
		}
		return nil
	})

	if errors.Is(err, ErrCreateOptions) {
		s.discardPoll(ctx, pollID)
	}
	if err != nil {
		return "", asServiceError(err, ErrCreatePoll, s.log)
	}

	s.log.WithFields(logrus.Fields{"poll_id": pollID, "options": len(texts)}).Info("poll created")
	s.revalidator.Revalidate(ctx, models.PollsPath)
	return pollID, nil
}

// discardPoll removes a poll whose options could not be stored. On a
// transactional store the rollback has usually removed it already.
func (s *PollServiceImpl) discardPoll(ctx context.Context, pollID string) {
	if pollID == "" {
		return
	}

	err := s.store.DeletePoll(ctx, pollID)
	switch {
	case err == nil:
		s.log.WithField("poll_id", pollID).Warn("removed poll left without options")
	case errors.Is(err, repository.ErrNotFound):
	default:
		s.log.WithError(err).WithField("poll_id", pollID).Error("failed to remove poll left without options")
	}
}

// GetPolls lists every poll newest first and marks the ones the viewer owns.
// On failure it returns an empty list together with ErrLoadPolls.
func (s *PollServiceImpl) GetPolls(ctx context.Context, viewer *models.Identity) ([]PollView, error) {
	polls, err := s.store.ListPolls(ctx)
	if err != nil {
		s.log.WithError(err).Error("failed to list polls")
		return []PollView{}, ErrLoadPolls
	}

	views := make([]PollView, len(polls))
	for i, p := range polls {
		views[i] = PollView{Poll: p, IsOwner: viewer.Owns(p.UserID)}
	}
	return views, nil
}

// GetPoll returns one poll with its options
func (s *PollServiceImpl) GetPoll(ctx context.Context, id string) (*models.Poll, error) {
	poll, err := s.store.GetPoll(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPollNotFound
	}
	if err != nil {
		s.log.WithError(err).WithField("poll_id", id).Error("failed to load poll")
		return nil, ErrLoadPoll
	}
	return poll, nil
}

// UpdatePoll replaces the question and reconciles the stored options with
// options: new ones are inserted, existing ones upserted by id and every
// stored option that was not submitted is deleted.
func (s *PollServiceImpl) UpdatePoll(ctx context.Context, id string, submitter *models.Identity, question string, options []OptionInput) error {
	if submitter == nil {
		return ErrUpdateLogin
	}

	log := s.log.WithFields(logrus.Fields{"poll_id": id, "user_id": submitter.UserID})

	err := s.store.Transaction(ctx, func(tx repository.PollStore) error {
		owner, err := tx.PollOwner(ctx, id)
		if err != nil {
			log.WithError(err).Warn("owner lookup failed")
			return ErrUpdateNotOwner
		}
		if !submitter.Owns(owner) {
			return ErrUpdateNotOwner
		}

		if err := tx.UpdateQuestion(ctx, id, question); err != nil {
			log.WithError(err).Error("failed to update question")
			return ErrUpdateQuestion
		}

		fresh, existing := partitionOptions(id, options)

		inserted, err := tx.InsertOptions(ctx, fresh)
		if err != nil {
			log.WithError(err).Error("failed to insert new options")
			return ErrAddOptions
		}

		if err := tx.UpsertOptions(ctx, id, existing); err != nil {
			log.WithError(err).Error("failed to upsert existing options")
			return ErrUpdateOptions
		}

		stored, err := tx.OptionIDs(ctx, id)
		if err != nil {
			log.WithError(err).Error("failed to list stored options")
			return ErrRemoveOptions
		}

		if err := tx.DeleteOptions(ctx, staleOptionIDs(stored, existing, inserted)); err != nil {
			log.WithError(err).Error("failed to delete removed options")
			return ErrRemoveOptions
		}
		return nil
	})
	if err != nil {
		return asServiceError(err, ErrUpdateOptions, log)
	}

	log.Info("poll updated")
	s.revalidator.Revalidate(ctx, pollViews(id)...)
	return nil
}

// DeletePoll removes a poll owned by submitter. Options and votes are
// removed by the storage cascade.
func (s *PollServiceImpl) DeletePoll(ctx context.Context, id string, submitter *models.Identity) error {
	if submitter == nil {
		return ErrDeleteLogin
	}

	log := s.log.WithFields(logrus.Fields{"poll_id": id, "user_id": submitter.UserID})

	owner, err := s.store.PollOwner(ctx, id)
	if err != nil {
		log.WithError(err).Warn("owner lookup failed")
		return ErrDeletePoll
	}
	if !submitter.Owns(owner) {
		return ErrDeleteNotOwner
	}

	if err := s.store.DeletePoll(ctx, id); err != nil {
		log.WithError(err).Error("failed to delete poll")
		return ErrDeletePoll
	}

	log.Info("poll deleted")
	s.revalidator.Revalidate(ctx, pollViews(id)...)
	return nil
}

// asServiceError passes *Error values through and replaces anything else,
// such as a failed commit, with fallback.
func asServiceError(err error, fallback *Error, log *logrus.Entry) error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	log.WithError(err).Error("transaction failed")
	return fallback
}
