package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlinks/internal/account"
)

const uniqueViolation = "23505"

// UserPostgresStore is a PostgreSQL implementation of account.Repository.
//
// It expects:
//
//	CREATE TABLE users (
//		id            UUID PRIMARY KEY,
//		email         TEXT        NOT NULL UNIQUE,
//		password_hash BYTEA       NOT NULL,
//		confirmed     BOOLEAN     NOT NULL DEFAULT false,
//		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type UserPostgresStore struct {
	pool *pgxpool.Pool
}

// NewUserPostgresStore creates a new PostgreSQL-backed user store.
func NewUserPostgresStore(pool *pgxpool.Pool) *UserPostgresStore {
	return &UserPostgresStore{pool: pool}
}

func (s *UserPostgresStore) Create(ctx context.Context, user *account.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, confirmed, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Confirmed, user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return account.ErrEmailTaken
		}

		return err
	}

	return nil
}

func (s *UserPostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*account.User, error) {
	return s.getOne(ctx, `WHERE id = $1`, id)
}

func (s *UserPostgresStore) GetByEmail(ctx context.Context, email string) (*account.User, error) {
	return s.getOne(ctx, `WHERE email = $1`, email)
}

func (s *UserPostgresStore) Confirm(ctx context.Context, id uuid.UUID) error {
	return s.exec(ctx, `UPDATE users SET confirmed = true WHERE id = $1`, id)
}

func (s *UserPostgresStore) SetPassword(ctx context.Context, id uuid.UUID, hash []byte) error {
	return s.exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
}

func (s *UserPostgresStore) getOne(ctx context.Context, where string, arg any) (*account.User, error) {
	var u account.User

	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, confirmed, created_at FROM users `+where, arg,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Confirmed, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrNotFound
		}

		return nil, err
	}

	return &u, nil
}

func (s *UserPostgresStore) exec(ctx context.Context, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return account.ErrNotFound
	}

	return nil
}

// Compile-time check.
var _ account.Repository = (*UserPostgresStore)(nil)
