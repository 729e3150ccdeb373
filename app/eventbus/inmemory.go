package eventbus

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// NewInMemoryEventBus creates an EventBus backed by watermill's in-process
// gochannel pub/sub. Used when no NATS URL is configured, and in tests.
func NewInMemoryEventBus(logger *slog.Logger) EventBus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewSlogLogger(logger),
	)

	return &bus{
		publisher:  pubSub,
		subscriber: pubSub,
		logger:     logger,
	}
}
