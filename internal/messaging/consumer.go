package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Handler processes one decoded event. A returned error asks for redelivery
// unless it wraps Permanent or the attempt budget is spent.
type Handler[T any] func(ctx context.Context, event *T) error

var errPermanent = errors.New("permanent failure")

// Permanent marks err as not worth retrying; the message is acked and dropped.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", errPermanent, err)
}

// DefaultMaxAttempts bounds how often one message is handled before it is
// dropped.
const DefaultMaxAttempts = 5

type consumerOptions struct {
	maxAttempts int
	timeout     time.Duration
}

// Option tunes a Consumer.
type Option func(*consumerOptions)

// WithMaxAttempts sets how many failed deliveries of a message are tolerated.
func WithMaxAttempts(n int) Option {
	return func(o *consumerOptions) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithHandlerTimeout bounds each handler call.
func WithHandlerTimeout(d time.Duration) Option {
	return func(o *consumerOptions) {
		o.timeout = d
	}
}

// Consumer decodes JSON messages of one topic into T and feeds them to a
// Handler, one at a time.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handler    Handler[T]
	logger     *zap.Logger
	opts       consumerOptions

	// attempts counts failed deliveries per message UUID. Only the receive
	// loop touches it.
	attempts map[string]int
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewConsumer creates a consumer for topic.
func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
	opts ...Option,
) *Consumer[T] {
	o := consumerOptions{maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(&o)
	}

	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handler:    handler,
		logger:     logger.With(zap.String("topic", topic)),
		opts:       o,
		attempts:   make(map[string]int),
		done:       make(chan struct{}),
	}
}

// Topic returns the topic this consumer subscribes to.
func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start subscribes and processes messages in the background until ctx is
// cancelled or Shutdown is called.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		c.cancel()
		close(c.done)

		return fmt.Errorf("subscribe to %s: %w", c.topic, err)
	}

	go c.receive(ctx, msgs)

	return nil
}

func (c *Consumer[T]) receive(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			if c.settle(ctx, msg) {
				msg.Ack()
			} else {
				msg.Nack()
			}
		}
	}
}

// settle handles msg and reports whether it is done with, successfully or
// not. Undecodable payloads are dropped right away.
func (c *Consumer[T]) settle(ctx context.Context, msg *message.Message) bool {
	log := c.logger.With(zap.String("message_id", msg.UUID))

	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		log.Error("dropping undecodable event", zap.Error(err))

		return true
	}

	err := c.handle(ctx, &event)
	if err == nil {
		delete(c.attempts, msg.UUID)
		log.Debug("processed event")

		return true
	}

	if errors.Is(err, errPermanent) {
		delete(c.attempts, msg.UUID)
		log.Error("dropping event after permanent failure", zap.Error(err))

		return true
	}

	c.attempts[msg.UUID]++

	n := c.attempts[msg.UUID]
	if n >= c.opts.maxAttempts {
		delete(c.attempts, msg.UUID)
		log.Error("dropping event after repeated failures", zap.Int("attempts", n), zap.Error(err))

		return true
	}

	log.Warn("failed to handle event, will retry", zap.Int("attempt", n), zap.Error(err))

	return false
}

func (c *Consumer[T]) handle(ctx context.Context, event *T) error {
	if c.opts.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.opts.timeout)
		defer cancel()
	}

	return c.handler(ctx, event)
}

// Shutdown stops receiving and waits for the message in flight.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel == nil {
		return nil
	}

	c.cancel()
	<-c.done

	return nil
}
