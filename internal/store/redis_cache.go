package store

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlinks/internal/shortener"
)

// RedisCacheRepository wraps a Repository with Redis caching for lookups by id.
// Writes go to the underlying store first; the cached entry is dropped on
// delete and tag updates.
type RedisCacheRepository struct {
	store  shortener.Repository
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store shortener.Repository, client *redis.Client, ttl time.Duration,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		prefix: "link:",
		ttl:    ttl,
	}
}

// Create stores a link in the underlying store and updates the cache.
func (r *RedisCacheRepository) Create(ctx context.Context, link *shortener.Link, quota int) error {
	if err := r.store.Create(ctx, link, quota); err != nil {
		return err
	}

	// Write-through: redirects usually follow shortly after creation
	r.cacheLink(ctx, link)

	return nil
}

// GetByID retrieves a link by id, checking cache first.
func (r *RedisCacheRepository) GetByID(ctx context.Context, id int64) (*shortener.Link, error) {
	if link, err := r.getFromCache(ctx, id); err == nil {
		return link, nil
	}

	link, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheLink(ctx, link)

	return link, nil
}

func (r *RedisCacheRepository) Delete(ctx context.Context, id int64, owner uuid.UUID) error {
	if err := r.store.Delete(ctx, id, owner); err != nil {
		return err
	}

	r.evict(ctx, id)

	return nil
}

func (r *RedisCacheRepository) UpdateTags(ctx context.Context, id int64, owner uuid.UUID, tags []string) error {
	if err := r.store.UpdateTags(ctx, id, owner, tags); err != nil {
		return err
	}

	r.evict(ctx, id)

	return nil
}

func (r *RedisCacheRepository) List(
	ctx context.Context, owner uuid.UUID, filter shortener.Filter,
) ([]shortener.Link, error) {
	return r.store.List(ctx, owner, filter)
}

func (r *RedisCacheRepository) TagCounts(ctx context.Context, owner uuid.UUID) ([]shortener.TagCount, error) {
	return r.store.TagCounts(ctx, owner)
}

func (r *RedisCacheRepository) Count(ctx context.Context, owner uuid.UUID) (int, error) {
	return r.store.Count(ctx, owner)
}

func (r *RedisCacheRepository) key(id int64) string {
	return r.prefix + strconv.FormatInt(id, 10)
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, id int64) (*shortener.Link, error) {
	result, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, shortener.ErrNotFound
	}

	owner, err := uuid.Parse(result["owner_id"])
	if err != nil {
		return nil, err
	}

	var createdAt time.Time

	if ts, ok := result["created_at"]; ok {
		if nanos, err := strconv.ParseInt(ts, 10, 64); err == nil {
			createdAt = time.Unix(0, nanos).UTC()
		}
	}

	tags := []string{}
	if raw := result["tags"]; raw != "" {
		tags = strings.Split(raw, ",")
	}

	return &shortener.Link{
		ID:        id,
		OwnerID:   owner,
		LongURL:   result["long_url"],
		Tags:      tags,
		CreatedAt: createdAt,
	}, nil
}

func (r *RedisCacheRepository) cacheLink(ctx context.Context, link *shortener.Link) {
	pipe := r.client.Pipeline()
	key := r.key(link.ID)

	// Tags are letters and digits only, so a comma never appears inside one.
	pipe.HSet(ctx, key, map[string]interface{}{
		"owner_id":   link.OwnerID.String(),
		"long_url":   link.LongURL,
		"tags":       strings.Join(link.Tags, ","),
		"created_at": link.CreatedAt.UnixNano(),
	})

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	_, _ = pipe.Exec(ctx)
}

// evict drops the cached entry. A failed delete leaves a stale entry until the TTL expires.
func (r *RedisCacheRepository) evict(ctx context.Context, id int64) {
	_ = r.client.Del(ctx, r.key(id)).Err()
}

// Shutdown is a no-op for RedisCacheRepository (client managed externally).
func (r *RedisCacheRepository) Shutdown() error {
	return nil
}

// Compile-time check.
var _ shortener.Repository = (*RedisCacheRepository)(nil)
