package shortener

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("link not found")
	ErrQuotaExceeded = errors.New("link quota exceeded")
	ErrInvalidURL    = errors.New("invalid url")
	ErrBotDetected   = errors.New("bot detected")
	ErrInvalidTag    = errors.New("invalid tag")
	ErrTagExists     = errors.New("tag already exists")
	ErrTooManyTags   = errors.New("too many tags")
	ErrTagNotFound   = errors.New("tag not found")
)

// Repository stores links. Methods taking an owner only see that owner's
// links and report ErrNotFound for anybody else's.
type Repository interface {
	// Create assigns link.ID. It fails with ErrQuotaExceeded when the owner
	// already holds quota links; the check and the insert are atomic.
	Create(ctx context.Context, link *Link, quota int) error
	GetByID(ctx context.Context, id int64) (*Link, error)
	Delete(ctx context.Context, id int64, owner uuid.UUID) error
	List(ctx context.Context, owner uuid.UUID, filter Filter) ([]Link, error)
	UpdateTags(ctx context.Context, id int64, owner uuid.UUID, tags []string) error
	TagCounts(ctx context.Context, owner uuid.UUID) ([]TagCount, error)
	Count(ctx context.Context, owner uuid.UUID) (int, error)
}

// TokenCodec converts link ids to public tokens and back.
type TokenCodec interface {
	Encode(id int64) (string, error)
	Decode(token string) (int64, error)
}
