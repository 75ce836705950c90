// Package auth issues and verifies the bearer tokens used by the API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SecurityScheme is the OpenAPI security scheme name of bearer tokens.
// Operations list it in their security requirements to require a token.
const SecurityScheme = "bearer"

var (
	ErrEmptySecret  = errors.New("jwt secret is empty")
	ErrEmptyIssuer  = errors.New("jwt issuer is empty")
	ErrInvalidTTL   = errors.New("jwt ttl must be > 0")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims identifies the caller of an authenticated request.
type Claims struct {
	UserID    uuid.UUID
	TokenID   string
	ExpiresAt time.Time
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer validates its inputs and returns an HS256 issuer.
func NewIssuer(secret, issuer string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	if issuer == "" {
		return nil, ErrEmptyIssuer
	}

	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	return &Issuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue signs a token for userID with a fresh jti.
func (i *Issuer) Issue(userID uuid.UUID) (string, Claims, error) {
	now := i.now()
	claims := Claims{
		UserID:    userID,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(i.ttl),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    i.issuer,
		Subject:   userID.String(),
		ID:        claims.TokenID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	})

	signed, err := t.SignedString(i.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, claims, nil
}

// Parse verifies signature, issuer and expiry and returns the claims.
func (i *Issuer) Parse(token string) (Claims, error) {
	var parsed jwt.RegisteredClaims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)

	if _, err := parser.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(parsed.Subject)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	if parsed.ID == "" {
		return Claims{}, fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}

	return Claims{
		UserID:    userID,
		TokenID:   parsed.ID,
		ExpiresAt: parsed.ExpiresAt.Time,
	}, nil
}

// TTL returns the lifetime of issued tokens.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

type claimsKey struct{}

// ContextWithClaims stores the caller's claims in ctx.
func ContextWithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the caller's claims, if the request was authenticated.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(Claims)

	return claims, ok
}
