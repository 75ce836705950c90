package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema creates every table the Postgres stores use. Statements are
// idempotent so it runs on each start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		email         TEXT        NOT NULL UNIQUE,
		password_hash BYTEA       NOT NULL,
		confirmed     BOOLEAN     NOT NULL DEFAULT false,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS links (
		id         BIGSERIAL PRIMARY KEY,
		owner_id   UUID        NOT NULL,
		long_url   TEXT        NOT NULL,
		tags       TEXT[]      NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS links_owner_created_idx ON links (owner_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		user_id    UUID PRIMARY KEY REFERENCES users (id) ON DELETE CASCADE,
		full_name  TEXT        NOT NULL DEFAULT '',
		website    TEXT        NOT NULL DEFAULT '',
		email      TEXT        NOT NULL DEFAULT '',
		avatar_url TEXT        NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS link_stats (
		link_id          BIGINT PRIMARY KEY,
		clicks           BIGINT      NOT NULL DEFAULT 0,
		created_at       TIMESTAMPTZ NOT NULL,
		last_accessed_at TIMESTAMPTZ
	)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}

	return nil
}
