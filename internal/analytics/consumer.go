package analytics

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/shortlinks/internal/messaging"
	"go.uber.org/zap"
)

// NewConsumers returns one consumer per link topic, each persisting its
// events to store.
func NewConsumers(subscriber message.Subscriber, store Store, logger *zap.Logger) []messaging.Runnable {
	logger = logger.Named("analytics")

	return []messaging.Runnable{
		messaging.NewConsumer(subscriber, TopicLinkCreated, messaging.Handler[LinkCreatedEvent](store.SaveLinkCreated), logger),
		messaging.NewConsumer(subscriber, TopicLinkAccessed, messaging.Handler[LinkAccessedEvent](store.SaveLinkAccessed), logger),
		messaging.NewConsumer(subscriber, TopicLinkDeleted, messaging.Handler[LinkDeletedEvent](store.SaveLinkDeleted), logger),
	}
}
