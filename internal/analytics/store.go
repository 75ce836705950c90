package analytics

import "context"

// Store persists link events.
type Store interface {
	SaveLinkCreated(ctx context.Context, event *LinkCreatedEvent) error
	SaveLinkAccessed(ctx context.Context, event *LinkAccessedEvent) error
	SaveLinkDeleted(ctx context.Context, event *LinkDeletedEvent) error
}
