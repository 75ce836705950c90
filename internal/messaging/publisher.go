package messaging

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Metadata keys set on every published message.
const (
	MetadataTopic       = "topic"
	MetadataPublishedAt = "published_at"
)

// Publish is a function that publishes a typed event.
type Publish[T any] func(event *T) error

// NewPublishFunc creates a typed publish function for a specific topic.
// Events are JSON encoded.
func NewPublishFunc[T any](publisher message.Publisher, topic string) Publish[T] {
	return func(event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode %s event: %w", topic, err)
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set(MetadataTopic, topic)
		msg.Metadata.Set(MetadataPublishedAt, time.Now().UTC().Format(time.RFC3339Nano))

		return publisher.Publish(topic, msg)
	}
}

// PublisherGroup shares one broker connection between every typed publish
// function and closes it exactly once.
type PublisherGroup struct {
	publisher message.Publisher
	once      sync.Once
	closeErr  error
}

func NewPublisherGroup(publisher message.Publisher) *PublisherGroup {
	return &PublisherGroup{publisher: publisher}
}

func (g *PublisherGroup) Publisher() message.Publisher {
	return g.publisher
}

// Shutdown closes the broker connection. Later calls return the first result.
func (g *PublisherGroup) Shutdown() error {
	g.once.Do(func() {
		if err := g.publisher.Close(); err != nil {
			g.closeErr = fmt.Errorf("close publisher: %w", err)
		}
	})

	return g.closeErr
}
