package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlinks/internal/shortener"
)

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
//
// It expects:
//
//	CREATE TABLE links (
//		id         BIGSERIAL PRIMARY KEY,
//		owner_id   UUID        NOT NULL,
//		long_url   TEXT        NOT NULL,
//		tags       TEXT[]      NOT NULL DEFAULT '{}',
//		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed link store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create counts and inserts under a per-owner advisory lock so concurrent
// creates cannot overshoot the quota.
func (p *PostgresStore) Create(ctx context.Context, link *shortener.Link, quota int) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, link.OwnerID,
		); err != nil {
			return fmt.Errorf("lock owner: %w", err)
		}

		var count int
		if err := tx.QueryRow(ctx,
			`SELECT count(*) FROM links WHERE owner_id = $1`, link.OwnerID,
		).Scan(&count); err != nil {
			return fmt.Errorf("count links: %w", err)
		}

		if count >= quota {
			return shortener.ErrQuotaExceeded
		}

		query := `
			INSERT INTO links (owner_id, long_url, tags, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`

		return tx.QueryRow(ctx, query,
			link.OwnerID,
			link.LongURL,
			nonNilTags(link.Tags),
			link.CreatedAt,
		).Scan(&link.ID)
	})
}

func (p *PostgresStore) GetByID(ctx context.Context, id int64) (*shortener.Link, error) {
	query := `
		SELECT id, owner_id, long_url, tags, created_at
		FROM links
		WHERE id = $1
	`

	link, err := scanLink(p.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return link, nil
}

func (p *PostgresStore) Delete(ctx context.Context, id int64, owner uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM links WHERE id = $1 AND owner_id = $2`, id, owner)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) List(ctx context.Context, owner uuid.UUID, filter shortener.Filter) ([]shortener.Link, error) {
	query, args := listQuery(owner, filter)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := make([]shortener.Link, 0)

	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}

		links = append(links, *link)
	}

	return links, rows.Err()
}

func (p *PostgresStore) UpdateTags(ctx context.Context, id int64, owner uuid.UUID, tags []string) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE links SET tags = $3 WHERE id = $1 AND owner_id = $2`,
		id, owner, nonNilTags(tags),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) TagCounts(ctx context.Context, owner uuid.UUID) ([]shortener.TagCount, error) {
	query := `
		SELECT t.tag, count(*)
		FROM links, unnest(links.tags) AS t(tag)
		WHERE links.owner_id = $1
		GROUP BY t.tag
		ORDER BY t.tag
	`

	rows, err := p.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]shortener.TagCount, 0)

	for rows.Next() {
		var c shortener.TagCount
		if err := rows.Scan(&c.Tag, &c.Count); err != nil {
			return nil, err
		}

		counts = append(counts, c)
	}

	return counts, rows.Err()
}

func (p *PostgresStore) Count(ctx context.Context, owner uuid.UUID) (int, error) {
	var count int

	err := p.pool.QueryRow(ctx, `SELECT count(*) FROM links WHERE owner_id = $1`, owner).Scan(&count)

	return count, err
}

func listQuery(owner uuid.UUID, f shortener.Filter) (string, []any) {
	var sb strings.Builder

	args := []any{owner}

	sb.WriteString(`SELECT id, owner_id, long_url, tags, created_at FROM links WHERE owner_id = $1`)

	if f.URLContains != "" {
		args = append(args, "%"+escapeLike(f.URLContains)+"%")
		fmt.Fprintf(&sb, ` AND long_url ILIKE $%d`, len(args))
	}

	if !f.CreatedOn.IsZero() {
		args = append(args, f.CreatedOn.UTC().Format("2006-01-02"))
		fmt.Fprintf(&sb, ` AND (created_at AT TIME ZONE 'UTC')::date = $%d::date`, len(args))
	}

	if len(f.Tags) > 0 {
		args = append(args, f.Tags)
		if f.ExactTags {
			fmt.Fprintf(&sb, ` AND tags @> $%d`, len(args))
		} else {
			fmt.Fprintf(&sb, ` AND tags && $%d`, len(args))
		}
	}

	if f.Ascending {
		sb.WriteString(` ORDER BY created_at ASC, id ASC`)
	} else {
		sb.WriteString(` ORDER BY created_at DESC, id DESC`)
	}

	return sb.String(), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanLink(row pgx.Row) (*shortener.Link, error) {
	var link shortener.Link

	if err := row.Scan(
		&link.ID,
		&link.OwnerID,
		&link.LongURL,
		&link.Tags,
		&link.CreatedAt,
	); err != nil {
		return nil, err
	}

	if link.Tags == nil {
		link.Tags = []string{}
	}

	return &link, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}

	return tags
}

// Compile-time check.
var _ shortener.Repository = (*PostgresStore)(nil)
