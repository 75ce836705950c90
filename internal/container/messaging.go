package container

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shortlinks/internal/account"
	"github.com/serroba/shortlinks/internal/analytics"
	analyticsstore "github.com/serroba/shortlinks/internal/analytics/store"
	"github.com/serroba/shortlinks/internal/messaging"
	"go.uber.org/zap"
)

// ConsumerGroupName is the Redis stream consumer group shared by all
// consumer processes.
const ConsumerGroupName = "shortlinks"

// PublisherGroupPackage provides the event publisher: Redis streams, or an
// in-process channel in memory mode.
func PublisherGroupPackage(injector *do.Injector) {
	memoryPubSubPackage(injector)

	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		var (
			publisher message.Publisher
			err       error
		)

		if do.MustInvoke[*Options](i).Memory {
			publisher = do.MustInvoke[*gochannel.GoChannel](i)
		} else {
			publisher, err = messaging.NewRedisPublisher(do.MustInvoke[*redis.Client](i), do.MustInvoke[*zap.Logger](i))
			if err != nil {
				return nil, err
			}
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (*analytics.Publisher, error) {
		return analytics.NewPublisher(do.MustInvoke[*messaging.PublisherGroup](i).Publisher()), nil
	})
}

// ConsumerGroupPackage provides the analytics and mail consumers. Analytics
// are written to Postgres, or only logged in memory mode.
func ConsumerGroupPackage(injector *do.Injector) {
	memoryPubSubPackage(injector)

	do.Provide(injector, func(i *do.Injector) (analytics.Store, error) {
		if do.MustInvoke[*Options](i).Memory {
			return analyticsstore.NewNoop(do.MustInvoke[*zap.Logger](i)), nil
		}

		return analyticsstore.NewPostgres(do.MustInvoke[*pgxpool.Pool](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		var (
			subscriber message.Subscriber
			err        error
		)

		if do.MustInvoke[*Options](i).Memory {
			subscriber = do.MustInvoke[*gochannel.GoChannel](i)
		} else {
			subscriber, err = messaging.NewRedisSubscriber(do.MustInvoke[*redis.Client](i), ConsumerGroupName, logger)
			if err != nil {
				return nil, err
			}
		}

		group := messaging.NewConsumerGroup(subscriber, logger)

		for _, c := range analytics.NewConsumers(subscriber, do.MustInvoke[analytics.Store](i), logger) {
			group.Add(c)
		}

		group.Add(messaging.NewConsumer(subscriber, account.TopicMail, account.LogMailHandler(logger), logger))

		return group, nil
	})
}

// memoryPubSubPackage provides the channel shared by publishers and
// consumers of one process. Both packages register it, so it is overridden
// rather than provided twice.
func memoryPubSubPackage(injector *do.Injector) {
	do.Override(injector, func(i *do.Injector) (*gochannel.GoChannel, error) {
		return messaging.NewMemoryPubSub(do.MustInvoke[*zap.Logger](i)), nil
	})
}
