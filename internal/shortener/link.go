package shortener

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultQuota is the number of links a user may hold at once.
	DefaultQuota = 50
	// MaxTags is the maximum number of tags on a single link.
	MaxTags = 5
	// MaxTagLength is the maximum length of a single tag.
	MaxTagLength = 30
	// DefaultPopularTags is the result size of MostUsedTags when no limit is given.
	DefaultPopularTags = 10

	minURLLength = 5
	maxURLLength = 2000
)

// Link is a stored long URL owned by a user. Its public token is derived
// from ID and never stored.
type Link struct {
	ID        int64
	OwnerID   uuid.UUID
	LongURL   string
	Tags      []string
	CreatedAt time.Time
}

// ShortLink is a link together with its public token.
type ShortLink struct {
	Link
	Token string
}

// Filter narrows List results.
type Filter struct {
	// URLContains matches long URLs case-insensitively.
	URLContains string
	// CreatedOn matches links created on the same UTC day. Zero matches any day.
	CreatedOn time.Time
	Tags      []string
	// ExactTags requires every tag in Tags; otherwise any one of them is enough.
	ExactTags bool
	Ascending bool
}

// TagCount is the number of an owner's links carrying a tag.
type TagCount struct {
	Tag   string
	Count int
}
