// Package profile manages public user profiles and avatars.
package profile

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	minNameLength    = 3
	maxNameLength    = 40
	maxWebsiteLength = 1000
)

var (
	ErrNotFound         = errors.New("profile not found")
	ErrInvalidName      = errors.New("invalid full name")
	ErrInvalidWebsite   = errors.New("invalid website")
	ErrInvalidAvatarURL = errors.New("invalid avatar url")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image too large")
	ErrEmptyImage       = errors.New("nothing to upload")
)

// Profile is the public part of a user.
type Profile struct {
	UserID    uuid.UUID
	FullName  string
	Website   string
	Email     string
	AvatarURL string
	UpdatedAt time.Time
}

// Update lists the fields to change. Nil fields are left alone; an empty
// string clears the field.
type Update struct {
	FullName *string
	Website  *string
	Email    *string
}

// Repository stores profiles. Save inserts or replaces.
type Repository interface {
	Get(ctx context.Context, userID uuid.UUID) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
}

func validateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < minNameLength || n > maxNameLength {
		return fmt.Errorf("%w: must be between %d and %d characters", ErrInvalidName, minNameLength, maxNameLength)
	}

	return nil
}

func validateWebsite(website string) error {
	if len(website) > maxWebsiteLength {
		return fmt.Errorf("%w: at most %d characters", ErrInvalidWebsite, maxWebsiteLength)
	}

	u, err := url.ParseRequestURI(website)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: must be an absolute http(s) url", ErrInvalidWebsite)
	}

	return nil
}

func hasURLPrefix(raw, base string) bool {
	if base == "" {
		return false
	}

	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	rest, ok := strings.CutPrefix(raw, base)

	return ok && rest != "" && !strings.Contains(rest, "..")
}
