package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/contentwriter/api/internal/model"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrSessionNotFound = errors.New("session not found")
)

const (
	usersKey          = "users"
	currentKeyPattern = "current:%s"
)

// CredentialStore keeps registered users and the user behind each session.
type CredentialStore interface {
	FindUser(ctx context.Context, username string) (*model.User, error)
	SaveUser(ctx context.Context, user *model.User) error
	SetCurrent(ctx context.Context, sessionID, username string, ttl time.Duration) error
	Current(ctx context.Context, sessionID string) (string, error)
	ClearCurrent(ctx context.Context, sessionID string) error
}

// RedisCredentialStore stores users in the "users" hash and sessions under
// "current:<session>" keys.
type RedisCredentialStore struct {
	redis *redis.Client
}

func NewRedisCredentialStore(redisClient *redis.Client) *RedisCredentialStore {
	return &RedisCredentialStore{redis: redisClient}
}

func (s *RedisCredentialStore) FindUser(ctx context.Context, username string) (*model.User, error) {
	data, err := s.redis.HGet(ctx, usersKey, username).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

func (s *RedisCredentialStore) SaveUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	created, err := s.redis.HSetNX(ctx, usersKey, user.Username, data).Result()
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	if !created {
		return ErrUserExists
	}
	return nil
}

func (s *RedisCredentialStore) SetCurrent(ctx context.Context, sessionID, username string, ttl time.Duration) error {
	return s.redis.Set(ctx, fmt.Sprintf(currentKeyPattern, sessionID), username, ttl).Err()
}

func (s *RedisCredentialStore) Current(ctx context.Context, sessionID string) (string, error) {
	username, err := s.redis.Get(ctx, fmt.Sprintf(currentKeyPattern, sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionNotFound
		}
		return "", err
	}
	return username, nil
}

func (s *RedisCredentialStore) ClearCurrent(ctx context.Context, sessionID string) error {
	return s.redis.Del(ctx, fmt.Sprintf(currentKeyPattern, sessionID)).Err()
}

// MemoryCredentialStore is a process-local CredentialStore.
type MemoryCredentialStore struct {
	mu       sync.RWMutex
	users    map[string]model.User
	sessions map[string]memorySession
	now      func() time.Time
}

type memorySession struct {
	username  string
	expiresAt time.Time
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		users:    make(map[string]model.User),
		sessions: make(map[string]memorySession),
		now:      time.Now,
	}
}

func (s *MemoryCredentialStore) FindUser(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (s *MemoryCredentialStore) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.Username]; ok {
		return ErrUserExists
	}
	s.users[user.Username] = *user
	return nil
}

func (s *MemoryCredentialStore) SetCurrent(ctx context.Context, sessionID, username string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := memorySession{username: username}
	if ttl > 0 {
		sess.expiresAt = s.now().Add(ttl)
	}
	s.sessions[sessionID] = sess
	return nil
}

func (s *MemoryCredentialStore) Current(ctx context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok || (!sess.expiresAt.IsZero() && !s.now().Before(sess.expiresAt)) {
		return "", ErrSessionNotFound
	}
	return sess.username, nil
}

func (s *MemoryCredentialStore) ClearCurrent(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}
