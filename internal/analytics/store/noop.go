package store

import (
	"context"

	"github.com/serroba/shortlinks/internal/analytics"
	"go.uber.org/zap"
)

// Noop is a no-op implementation of analytics.Store that logs events.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new no-op analytics store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveLinkCreated(_ context.Context, event *analytics.LinkCreatedEvent) error {
	n.logger.Info("link created event received",
		zap.Int64("linkId", event.LinkID),
		zap.String("token", event.Token),
		zap.String("longUrl", event.LongURL),
		zap.Time("createdAt", event.CreatedAt),
	)

	return nil
}

func (n *Noop) SaveLinkAccessed(_ context.Context, event *analytics.LinkAccessedEvent) error {
	n.logger.Info("link accessed event received",
		zap.Int64("linkId", event.LinkID),
		zap.String("token", event.Token),
		zap.Time("accessedAt", event.AccessedAt),
		zap.String("referrer", event.Referrer),
	)

	return nil
}

func (n *Noop) SaveLinkDeleted(_ context.Context, event *analytics.LinkDeletedEvent) error {
	n.logger.Info("link deleted event received",
		zap.Int64("linkId", event.LinkID),
		zap.String("token", event.Token),
	)

	return nil
}

var _ analytics.Store = (*Noop)(nil)
