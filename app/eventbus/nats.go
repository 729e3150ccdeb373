package eventbus

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	watermillnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	nc "github.com/nats-io/nats.go"

	"github.com/about-last-night/aln-backend/app/shared/attr"
)

// NewNATSEventBus creates an EventBus backed by NATS.
func NewNATSEventBus(natsURL string, logger *slog.Logger) (EventBus, error) {
	watermillLogger := watermill.NewSlogLogger(logger)
	marshaller := &watermillnats.NATSMarshaler{}

	publisher, err := watermillnats.NewPublisher(
		watermillnats.PublisherConfig{
			URL:       natsURL,
			Marshaler: marshaller,
			NatsOptions: []nc.Option{
				nc.RetryOnFailedConnect(true),
			},
		},
		watermillLogger,
	)
	if err != nil {
		logger.Error("Failed to create NATS publisher", attr.Error(err))
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}

	subscriber, err := watermillnats.NewSubscriber(
		watermillnats.SubscriberConfig{
			URL:         natsURL,
			Unmarshaler: marshaller,
			NatsOptions: []nc.Option{
				nc.RetryOnFailedConnect(true),
			},
		},
		watermillLogger,
	)
	if err != nil {
		publisher.Close()
		logger.Error("Failed to create NATS subscriber", attr.Error(err))
		return nil, fmt.Errorf("failed to create NATS subscriber: %w", err)
	}

	return &bus{
		publisher:  publisher,
		subscriber: subscriber,
		logger:     logger,
	}, nil
}
