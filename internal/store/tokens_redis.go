package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlinks/internal/account"
)

// TokenRedisStore keeps one-time tokens and revoked token ids in Redis with
// native expiry.
type TokenRedisStore struct {
	client        *redis.Client
	tokenPrefix   string
	revokedPrefix string
}

// NewTokenRedisStore creates a new Redis-backed token store.
func NewTokenRedisStore(client *redis.Client) *TokenRedisStore {
	return &TokenRedisStore{
		client:        client,
		tokenPrefix:   "token:",
		revokedPrefix: "revoked:",
	}
}

func (s *TokenRedisStore) Put(
	ctx context.Context, purpose account.Purpose, token string, userID uuid.UUID, ttl time.Duration,
) error {
	return s.client.Set(ctx, s.tokenPrefix+tokenKey(purpose, token), userID.String(), ttl).Err()
}

// Take uses GETDEL so a token can be redeemed at most once.
func (s *TokenRedisStore) Take(ctx context.Context, purpose account.Purpose, token string) (uuid.UUID, error) {
	raw, err := s.client.GetDel(ctx, s.tokenPrefix+tokenKey(purpose, token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, account.ErrInvalidToken
		}

		return uuid.Nil, err
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, account.ErrInvalidToken
	}

	return userID, nil
}

func (s *TokenRedisStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return s.client.Set(ctx, s.revokedPrefix+jti, 1, ttl).Err()
}

func (s *TokenRedisStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, s.revokedPrefix+jti).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// Compile-time check.
var _ account.TokenStore = (*TokenRedisStore)(nil)
