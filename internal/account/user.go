// Package account manages users: sign-up with email confirmation, login,
// logout and password changes.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const (
	minPasswordLength = 9
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLength = 72
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password too weak")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)

// User is a registered account.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash []byte
	Confirmed    bool
	CreatedAt    time.Time
}

// Repository stores users. Create reports ErrEmailTaken for a duplicate email.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Confirm(ctx context.Context, id uuid.UUID) error
	SetPassword(ctx context.Context, id uuid.UUID, hash []byte) error
}

// Purpose separates one-time tokens issued for different flows.
type Purpose string

const (
	PurposeConfirm Purpose = "confirm"
	PurposeReset   Purpose = "reset"
)

// TokenStore keeps one-time tokens and revoked JWT ids.
type TokenStore interface {
	// Put stores a single-use token for userID.
	Put(ctx context.Context, purpose Purpose, token string, userID uuid.UUID, ttl time.Duration) error
	// Take returns the owner of a token and deletes it. Unknown or expired
	// tokens yield ErrInvalidToken.
	Take(ctx context.Context, purpose Purpose, token string) (uuid.UUID, error)
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// NormalizeEmail checks that email is a bare address and lowercases it.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	return strings.ToLower(email), nil
}

// ValidatePassword requires a letter, a digit, a special character and
// 9 to 72 bytes.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return fmt.Errorf("%w: must be between %d and %d characters",
			ErrWeakPassword, minPasswordLength, maxPasswordLength)
	}

	var letter, digit, special bool

	for _, r := range password {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case r < unicode.MaxASCII && unicode.IsDigit(r):
			digit = true
		case !unicode.IsSpace(r):
			special = true
		}
	}

	if !letter || !digit || !special {
		return fmt.Errorf("%w: needs a letter, a digit and a special character", ErrWeakPassword)
	}

	return nil
}
