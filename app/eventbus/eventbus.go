// Package eventbus wraps watermill publishers and subscribers behind a small
// interface so modules can propagate event-state changes without caring about
// the transport. Delivery is at-least-once and unordered; consumers must be
// idempotent.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/about-last-night/aln-backend/app/shared/attr"
)

// Handler processes one delivered message. Returning an error nacks the
// message and it will be redelivered.
type Handler func(ctx context.Context, msg *message.Message) error

// EventBus is the pub/sub surface used by the modules.
type EventBus interface {
	Publish(ctx context.Context, topic string, msg *message.Message) error
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// NewMessage builds a watermill message with a fresh UUID from a JSON-encodable
// payload.
func NewMessage(payload any) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return message.NewMessage(watermill.NewUUID(), data), nil
}

// bus implements EventBus over any watermill publisher/subscriber pair.
type bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger
}

func (b *bus) Publish(ctx context.Context, topic string, msg *message.Message) error {
	if msg.UUID == "" {
		msg.UUID = watermill.NewUUID()
	}

	b.logger.DebugContext(ctx, "Publishing message",
		attr.String("topic", topic),
		attr.String("message_id", msg.UUID),
	)

	if err := b.publisher.Publish(topic, msg); err != nil {
		b.logger.ErrorContext(ctx, "Failed to publish message",
			attr.String("topic", topic),
			attr.Error(err),
		)
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	return nil
}

func (b *bus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := b.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	b.logger.InfoContext(ctx, "Subscription started", attr.String("topic", topic))

	go func() {
		for msg := range messages {
			if err := handler(ctx, msg); err != nil {
				b.logger.ErrorContext(ctx, "Handler error",
					attr.String("topic", topic),
					attr.String("message_id", msg.UUID),
					attr.Error(err),
				)
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}()

	return nil
}

func (b *bus) Close() error {
	var firstErr error
	if err := b.publisher.Close(); err != nil {
		firstErr = err
	}
	if err := b.subscriber.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
