package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/mail"
	"strings"
	"time"

	"polly-backend/logging"
	"polly-backend/models"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

// Service registers users and turns credentials into session tokens.
// Handlers resolve tokens to identities and pass them on to the poll service.
type Service struct {
	db       *gorm.DB
	sessions SessionStore
	ttl      time.Duration
	cost     int
	log      *logrus.Entry
}

// NewService creates the auth service. Sessions live for ttl.
func NewService(db *gorm.DB, sessions SessionStore, ttl time.Duration) *Service {
	return &Service{
		db:       db,
		sessions: sessions,
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		log:      logging.Module("auth"),
	}
}

// Register creates a user with a bcrypt password hash
func (s *Service) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	var taken int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&taken).Error; err != nil {
		return nil, errors.Wrap(err, "check email")
	}
	if taken > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	user := &models.User{Email: email, PasswordHash: string(hash)}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, errors.Wrap(err, "insert user")
	}

	s.log.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

// Login checks credentials and opens a session
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, errors.Wrap(err, "load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := newSessionToken()
	if err != nil {
		return "", nil, err
	}

	identity := models.Identity{UserID: user.ID, Email: user.Email}
	if err := s.sessions.Save(ctx, token, identity, s.ttl); err != nil {
		return "", nil, err
	}

	s.log.WithField("user_id", user.ID).Info("user logged in")
	return token, &user, nil
}

// Logout ends a session. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// Resolve returns the identity behind a session token
func (s *Service) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	return s.sessions.Load(ctx, token)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// newSessionToken returns 192 random bits, URL-safe base64 without padding
func newSessionToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "generate session token")
	}
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}
