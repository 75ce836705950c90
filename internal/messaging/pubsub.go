package messaging

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisPublisher publishes to Redis streams, one stream per topic.
func NewRedisPublisher(client redis.UniversalClient, logger *zap.Logger) (message.Publisher, error) {
	pub, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: client,
	}, NewZapLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create redis stream publisher: %w", err)
	}

	return pub, nil
}

// NewRedisSubscriber reads Redis streams as part of consumerGroup, so several
// consumer processes share the work.
func NewRedisSubscriber(
	client redis.UniversalClient, consumerGroup string, logger *zap.Logger,
) (message.Subscriber, error) {
	sub, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        client,
		ConsumerGroup: consumerGroup,
	}, NewZapLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create redis stream subscriber: %w", err)
	}

	return sub, nil
}

// NewMemoryPubSub returns an in-process pub/sub used when running without
// Redis. Messages published before a subscription exists are lost.
func NewMemoryPubSub(logger *zap.Logger) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, NewZapLogger(logger))
}
