package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/account"
)

// UserMemoryStore is an in-memory implementation of account.Repository.
type UserMemoryStore struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]account.User
	byEmail map[string]uuid.UUID
}

// NewUserMemoryStore creates a new in-memory user store.
func NewUserMemoryStore() *UserMemoryStore {
	return &UserMemoryStore{
		users:   make(map[uuid.UUID]account.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *UserMemoryStore) Create(_ context.Context, user *account.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[user.Email]; taken {
		return account.ErrEmailTaken
	}

	u := *user
	u.PasswordHash = slices.Clone(user.PasswordHash)

	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID

	return nil
}

func (s *UserMemoryStore) GetByID(_ context.Context, id uuid.UUID) (*account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, account.ErrNotFound
	}

	return &u, nil
}

func (s *UserMemoryStore) GetByEmail(ctx context.Context, email string) (*account.User, error) {
	s.mu.RLock()
	id, ok := s.byEmail[email]
	s.mu.RUnlock()

	if !ok {
		return nil, account.ErrNotFound
	}

	return s.GetByID(ctx, id)
}

func (s *UserMemoryStore) Confirm(_ context.Context, id uuid.UUID) error {
	return s.update(id, func(u *account.User) { u.Confirmed = true })
}

func (s *UserMemoryStore) SetPassword(_ context.Context, id uuid.UUID, hash []byte) error {
	return s.update(id, func(u *account.User) { u.PasswordHash = slices.Clone(hash) })
}

func (s *UserMemoryStore) update(id uuid.UUID, fn func(*account.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return account.ErrNotFound
	}

	fn(&u)
	s.users[id] = u

	return nil
}

// Compile-time check.
var _ account.Repository = (*UserMemoryStore)(nil)
