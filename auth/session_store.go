package auth

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"polly-backend/cache"
	"polly-backend/models"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// SessionStore maps opaque session tokens to identities
type SessionStore interface {
	Save(ctx context.Context, token string, identity models.Identity, ttl time.Duration) error
	Load(ctx context.Context, token string) (*models.Identity, error)
	Delete(ctx context.Context, token string) error
}

// RedisSessionStore keeps sessions in Redis so every server instance sees them
type RedisSessionStore struct {
	client cache.RedisClient
}

// NewRedisSessionStore creates a session store on client
func NewRedisSessionStore(client cache.RedisClient) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(token string) string {
	return "session:" + token
}

func (s *RedisSessionStore) Save(ctx context.Context, token string, identity models.Identity, ttl time.Duration) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	return errors.Wrap(s.client.Set(ctx, sessionKey(token), data, ttl).Err(), "save session")
}

func (s *RedisSessionStore) Load(ctx context.Context, token string) (*models.Identity, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}

	var identity models.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, errors.Wrap(err, "decode session")
	}
	return &identity, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	return errors.Wrap(s.client.Del(ctx, sessionKey(token)).Err(), "delete session")
}

type memorySession struct {
	identity  models.Identity
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in process memory. Used when Redis is
// unavailable; sessions do not survive a restart.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

// NewMemorySessionStore creates an empty in-memory session store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]memorySession),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Save(_ context.Context, token string, identity models.Identity, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = memorySession{identity: identity, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemorySessionStore) Load(_ context.Context, token string) (*models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrNoSession
	}
	if !s.now().Before(sess.expiresAt) {
		delete(s.sessions, token)
		return nil, ErrNoSession
	}
	identity := sess.identity
	return &identity, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// Sweep drops expired sessions
func (s *MemorySessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for token, sess := range s.sessions {
		if !now.Before(sess.expiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}
