// Package analytics records what happens to links: creations, redirects and
// deletions. Events are published by the API and persisted by the consumer.
package analytics

import "time"

const (
	TopicLinkCreated  = "link.created"
	TopicLinkAccessed = "link.accessed"
	TopicLinkDeleted  = "link.deleted"
)

// LinkCreatedEvent is emitted when a user shortens a URL.
type LinkCreatedEvent struct {
	LinkID    int64     `json:"linkId"`
	Token     string    `json:"token"`
	OwnerID   string    `json:"ownerId"`
	LongURL   string    `json:"longUrl"`
	CreatedAt time.Time `json:"createdAt"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
}

// LinkAccessedEvent is emitted on every redirect.
type LinkAccessedEvent struct {
	LinkID     int64     `json:"linkId"`
	Token      string    `json:"token"`
	AccessedAt time.Time `json:"accessedAt"`
	ClientIP   string    `json:"clientIp"`
	UserAgent  string    `json:"userAgent"`
	Referrer   string    `json:"referrer"`
}

// LinkDeletedEvent is emitted when an owner deletes a link.
type LinkDeletedEvent struct {
	LinkID    int64     `json:"linkId"`
	Token     string    `json:"token"`
	OwnerID   string    `json:"ownerId"`
	DeletedAt time.Time `json:"deletedAt"`
}
