package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/account"
)

type memoryToken struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// TokenMemoryStore is an in-memory implementation of account.TokenStore.
type TokenMemoryStore struct {
	mu      sync.Mutex
	tokens  map[string]memoryToken
	revoked map[string]time.Time
	now     func() time.Time
}

// NewTokenMemoryStore creates a new in-memory token store.
func NewTokenMemoryStore() *TokenMemoryStore {
	return &TokenMemoryStore{
		tokens:  make(map[string]memoryToken),
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *TokenMemoryStore) Put(
	_ context.Context, purpose account.Purpose, token string, userID uuid.UUID, ttl time.Duration,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[tokenKey(purpose, token)] = memoryToken{userID: userID, expiresAt: s.now().Add(ttl)}

	return nil
}

func (s *TokenMemoryStore) Take(_ context.Context, purpose account.Purpose, token string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := tokenKey(purpose, token)

	t, ok := s.tokens[key]
	if !ok {
		return uuid.Nil, account.ErrInvalidToken
	}

	delete(s.tokens, key)

	if !s.now().Before(t.expiresAt) {
		return uuid.Nil, account.ErrInvalidToken
	}

	return t.userID, nil
}

func (s *TokenMemoryStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	// Drop expired entries so the denylist does not grow forever
	for id, exp := range s.revoked {
		if !now.Before(exp) {
			delete(s.revoked, id)
		}
	}

	s.revoked[jti] = now.Add(ttl)

	return nil
}

func (s *TokenMemoryStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.revoked[jti]

	return ok && s.now().Before(exp), nil
}

func tokenKey(purpose account.Purpose, token string) string {
	return string(purpose) + ":" + token
}

// Compile-time check.
var _ account.TokenStore = (*TokenMemoryStore)(nil)
