package store

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlinks/internal/profile"
)

// ProfileMemoryStore is an in-memory implementation of profile.Repository.
type ProfileMemoryStore struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]profile.Profile
}

// NewProfileMemoryStore creates a new in-memory profile store.
func NewProfileMemoryStore() *ProfileMemoryStore {
	return &ProfileMemoryStore{profiles: make(map[uuid.UUID]profile.Profile)}
}

func (s *ProfileMemoryStore) Get(_ context.Context, userID uuid.UUID) (*profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, profile.ErrNotFound
	}

	return &p, nil
}

func (s *ProfileMemoryStore) Save(_ context.Context, p *profile.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[p.UserID] = *p

	return nil
}

// ProfilePostgresStore is a PostgreSQL implementation of profile.Repository.
//
// It expects:
//
//	CREATE TABLE profiles (
//		user_id    UUID PRIMARY KEY REFERENCES users (id) ON DELETE CASCADE,
//		full_name  TEXT        NOT NULL DEFAULT '',
//		website    TEXT        NOT NULL DEFAULT '',
//		email      TEXT        NOT NULL DEFAULT '',
//		avatar_url TEXT        NOT NULL DEFAULT '',
//		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type ProfilePostgresStore struct {
	pool *pgxpool.Pool
}

// NewProfilePostgresStore creates a new PostgreSQL-backed profile store.
func NewProfilePostgresStore(pool *pgxpool.Pool) *ProfilePostgresStore {
	return &ProfilePostgresStore{pool: pool}
}

func (s *ProfilePostgresStore) Get(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	query := `
		SELECT user_id, full_name, website, email, avatar_url, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	var p profile.Profile

	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.FullName, &p.Website, &p.Email, &p.AvatarURL, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, profile.ErrNotFound
		}

		return nil, err
	}

	return &p, nil
}

func (s *ProfilePostgresStore) Save(ctx context.Context, p *profile.Profile) error {
	query := `
		INSERT INTO profiles (user_id, full_name, website, email, avatar_url, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name  = EXCLUDED.full_name,
			website    = EXCLUDED.website,
			email      = EXCLUDED.email,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query, p.UserID, p.FullName, p.Website, p.Email, p.AvatarURL, p.UpdatedAt)

	return err
}

// Compile-time checks.
var (
	_ profile.Repository = (*ProfileMemoryStore)(nil)
	_ profile.Repository = (*ProfilePostgresStore)(nil)
)
