package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlinks/internal/ratelimit"
)

// RateLimitRedisStore is a Redis implementation of ratelimit.Store. Each key
// is a sorted set of request timestamps so instances behind a load balancer
// share counters.
type RateLimitRedisStore struct {
	client *redis.Client
	prefix string
}

// NewRateLimitRedisStore creates a new Redis-backed rate limit store.
func NewRateLimitRedisStore(client *redis.Client) *RateLimitRedisStore {
	return &RateLimitRedisStore{
		client: client,
		prefix: "ratelimit:",
	}
}

func (s *RateLimitRedisStore) Record(ctx context.Context, key string, window time.Duration) (int64, error) {
	now := time.Now()
	cutoff := now.Add(-window).UnixNano()
	k := s.prefix + key

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", strconv.FormatInt(cutoff, 10))
	pipe.ZAdd(ctx, k, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	card := pipe.ZCard(ctx, k)
	pipe.PExpire(ctx, k, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return card.Val(), nil
}

// Compile-time check.
var _ ratelimit.Store = (*RateLimitRedisStore)(nil)
