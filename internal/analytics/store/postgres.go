package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlinks/internal/analytics"
)

// ErrNoStats is returned by Stats for links without recorded events.
var ErrNoStats = errors.New("no stats for link")

// Stats is the click counter kept per link.
type Stats struct {
	LinkID         int64
	Clicks         int64
	CreatedAt      time.Time
	LastAccessedAt *time.Time
}

// Postgres keeps a click counter per link.
//
// It expects:
//
//	CREATE TABLE link_stats (
//		link_id          BIGINT PRIMARY KEY,
//		clicks           BIGINT      NOT NULL DEFAULT 0,
//		created_at       TIMESTAMPTZ NOT NULL,
//		last_accessed_at TIMESTAMPTZ
//	);
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a new PostgreSQL-backed analytics store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) SaveLinkCreated(ctx context.Context, event *analytics.LinkCreatedEvent) error {
	query := `
		INSERT INTO link_stats (link_id, created_at)
		VALUES ($1, $2)
		ON CONFLICT (link_id) DO NOTHING
	`

	if _, err := p.pool.Exec(ctx, query, event.LinkID, event.CreatedAt); err != nil {
		return fmt.Errorf("insert link stats: %w", err)
	}

	return nil
}

// SaveLinkAccessed creates the row when the created event has not been seen
// yet, since topics are consumed independently.
func (p *Postgres) SaveLinkAccessed(ctx context.Context, event *analytics.LinkAccessedEvent) error {
	query := `
		INSERT INTO link_stats (link_id, clicks, created_at, last_accessed_at)
		VALUES ($1, 1, $2, $2)
		ON CONFLICT (link_id) DO UPDATE
		SET clicks = link_stats.clicks + 1,
		    last_accessed_at = GREATEST(link_stats.last_accessed_at, EXCLUDED.last_accessed_at)
	`

	if _, err := p.pool.Exec(ctx, query, event.LinkID, event.AccessedAt); err != nil {
		return fmt.Errorf("record link access: %w", err)
	}

	return nil
}

func (p *Postgres) SaveLinkDeleted(ctx context.Context, event *analytics.LinkDeletedEvent) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM link_stats WHERE link_id = $1`, event.LinkID); err != nil {
		return fmt.Errorf("delete link stats: %w", err)
	}

	return nil
}

// Stats returns the counters for one link.
func (p *Postgres) Stats(ctx context.Context, linkID int64) (*Stats, error) {
	query := `
		SELECT link_id, clicks, created_at, last_accessed_at
		FROM link_stats
		WHERE link_id = $1
	`

	var s Stats

	err := p.pool.QueryRow(ctx, query, linkID).Scan(&s.LinkID, &s.Clicks, &s.CreatedAt, &s.LastAccessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoStats
		}

		return nil, err
	}

	return &s, nil
}

var _ analytics.Store = (*Postgres)(nil)
