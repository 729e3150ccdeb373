package eventservice

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/about-last-night/aln-backend/app/eventbus"
	eventtypes "github.com/about-last-night/aln-backend/app/modules/event/domain"
	eventdb "github.com/about-last-night/aln-backend/app/modules/event/infrastructure/repositories"
	"github.com/about-last-night/aln-backend/app/shared/attr"
)

// StateWatcher observes an event's lifecycle over the bus and invokes
// callbacks on transitions. Delivery is at-least-once, so redeliveries of the
// same transition are collapsed: OnStarted fires at most once and OnEnded at
// most once per watcher.
type StateWatcher struct {
	bus    eventbus.EventBus
	logger interface {
		ErrorContext(ctx context.Context, msg string, args ...any)
	}

	mu           sync.Mutex
	startedFired bool
	endedFired   bool

	OnStarted func(payload eventtypes.StateChangedPayload)
	OnEnded   func(payload eventtypes.StateChangedPayload)
}

// NewStateWatcher creates a watcher; call Watch to begin receiving.
func NewStateWatcher(bus eventbus.EventBus, logger interface {
	ErrorContext(ctx context.Context, msg string, args ...any)
}) *StateWatcher {
	return &StateWatcher{bus: bus, logger: logger}
}

// Watch subscribes to the event's state-change topic. It returns after the
// subscription is established; callbacks run on the bus's delivery goroutine.
func (w *StateWatcher) Watch(ctx context.Context, eventID uuid.UUID) error {
	return w.bus.Subscribe(ctx, eventtypes.StateChangedTopic(eventID), func(ctx context.Context, msg *message.Message) error {
		var payload eventtypes.StateChangedPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			w.logger.ErrorContext(ctx, "Dropping malformed state-change message",
				attr.UUID("event_id", eventID),
				attr.Error(err),
			)
			return nil
		}

		if payload.OldState == payload.NewState {
			return nil
		}

		w.dispatch(payload)
		return nil
	})
}

func (w *StateWatcher) dispatch(payload eventtypes.StateChangedPayload) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch payload.NewState {
	case eventdb.EventStateCountdown:
		if w.startedFired {
			return
		}
		w.startedFired = true
		if w.OnStarted != nil {
			w.OnStarted(payload)
		}
	case eventdb.EventStateEnded:
		if w.endedFired {
			return
		}
		w.endedFired = true
		if w.OnEnded != nil {
			w.OnEnded(payload)
		}
	}
}
