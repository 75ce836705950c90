package analytics

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/shortlinks/internal/messaging"
)

// Publisher bundles the typed publish functions for link events.
type Publisher struct {
	Created  messaging.Publish[LinkCreatedEvent]
	Accessed messaging.Publish[LinkAccessedEvent]
	Deleted  messaging.Publish[LinkDeletedEvent]
}

// NewPublisher creates publish functions for every link topic on publisher.
func NewPublisher(publisher message.Publisher) *Publisher {
	return &Publisher{
		Created:  messaging.NewPublishFunc[LinkCreatedEvent](publisher, TopicLinkCreated),
		Accessed: messaging.NewPublishFunc[LinkAccessedEvent](publisher, TopicLinkAccessed),
		Deleted:  messaging.NewPublishFunc[LinkDeletedEvent](publisher, TopicLinkDeleted),
	}
}
