package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// HandlerFunc processes one message. Returning an error retries the same
// message with backoff; its offset is committed only once the handler
// succeeds, so no later offset is committed past it.
type HandlerFunc func(ctx context.Context, msg kafkago.Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Consumer reads one topic as part of a consumer group.
type Consumer struct {
	reader  messageReader
	logger  *zap.Logger
	backoff func() backoff.BackOff
}

// NewConsumer creates a group consumer for topic.
func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		logger:  logger,
		backoff: handlerBackoff,
	}
}

func handlerBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Consume blocks, dispatching messages to handler until ctx is cancelled.
func (c *Consumer) Consume(ctx context.Context, handler HandlerFunc) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return context.Canceled
			}
			c.logger.Error("failed to fetch message", zap.Error(err))
			continue
		}

		if err := c.handle(ctx, handler, msg); err != nil {
			// Only a cancelled ctx ends the retry; the offset stays uncommitted.
			return context.Canceled
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit offset", zap.Error(err))
		}
	}
}

func (c *Consumer) handle(ctx context.Context, handler HandlerFunc, msg kafkago.Message) error {
	attempt := 0
	return backoff.RetryNotify(
		func() error {
			attempt++
			return handler(ctx, msg)
		},
		backoff.WithContext(c.backoff(), ctx),
		func(err error, wait time.Duration) {
			c.logger.Error("message handler failed, retrying",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		},
	)
}

// Close closes the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
