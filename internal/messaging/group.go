package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable is anything the group can start and stop.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// ConsumerGroup runs consumers that share one subscriber. The subscriber is
// closed last on Shutdown.
type ConsumerGroup struct {
	consumers  []Runnable
	subscriber message.Subscriber
	logger     *zap.Logger
}

// NewConsumerGroup creates an empty group over subscriber.
func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Add registers a consumer. It must be called before Start.
func (g *ConsumerGroup) Add(consumer Runnable) {
	g.consumers = append(g.consumers, consumer)
}

// Topics lists the topics of consumers that expose one.
func (g *ConsumerGroup) Topics() []string {
	topics := make([]string, 0, len(g.consumers))

	for _, c := range g.consumers {
		if t, ok := c.(interface{ Topic() string }); ok {
			topics = append(topics, t.Topic())
		}
	}

	return topics
}

// Start starts every consumer. If one fails, those already started are shut
// down again in reverse order.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	for i, c := range g.consumers {
		if err := c.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = g.consumers[j].Shutdown()
			}

			return fmt.Errorf("start consumer %d: %w", i, err)
		}
	}

	g.logger.Info("consumer group started", zap.Strings("topics", g.Topics()))

	return nil
}

// Shutdown stops every consumer, then closes the subscriber. All errors are
// returned joined.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("shutting down consumer group")

	errs := make([]error, 0, len(g.consumers)+1)

	for _, c := range g.consumers {
		errs = append(errs, c.Shutdown())
	}

	errs = append(errs, g.subscriber.Close())

	return errors.Join(errs...)
}
