package eventservice

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/about-last-night/aln-backend/app/eventbus"
	eventtypes "github.com/about-last-night/aln-backend/app/modules/event/domain"
	eventdb "github.com/about-last-night/aln-backend/app/modules/event/infrastructure/repositories"
)

func publishTransition(t *testing.T, bus eventbus.EventBus, eventID uuid.UUID, oldState, newState eventdb.EventState) {
	t.Helper()
	msg, err := eventbus.NewMessage(eventtypes.StateChangedPayload{
		EventID:  eventID,
		OldState: oldState,
		NewState: newState,
	})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), eventtypes.StateChangedTopic(eventID), msg))
}

func TestStateWatcherCollapsesRedeliveries(t *testing.T) {
	bus := eventbus.NewInMemoryEventBus(slog.Default())
	defer bus.Close()

	eventID := uuid.New()
	watcher := NewStateWatcher(bus, slog.Default())

	var mu sync.Mutex
	started, ended := 0, 0
	done := make(chan struct{}, 4)

	watcher.OnStarted = func(eventtypes.StateChangedPayload) {
		mu.Lock()
		started++
		mu.Unlock()
		done <- struct{}{}
	}
	watcher.OnEnded = func(eventtypes.StateChangedPayload) {
		mu.Lock()
		ended++
		mu.Unlock()
		done <- struct{}{}
	}

	require.NoError(t, watcher.Watch(context.Background(), eventID))

	// At-least-once delivery: the same transition arrives twice.
	publishTransition(t, bus, eventID, eventdb.EventStateNotStarted, eventdb.EventStateCountdown)
	publishTransition(t, bus, eventID, eventdb.EventStateNotStarted, eventdb.EventStateCountdown)
	publishTransition(t, bus, eventID, eventdb.EventStateCountdown, eventdb.EventStateEnded)
	publishTransition(t, bus, eventID, eventdb.EventStateCountdown, eventdb.EventStateEnded)

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for watcher callbacks")
		}
	}
	// Give redeliveries a moment to arrive before asserting.
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, ended)
}

func TestStateWatcherIgnoresNonTransitions(t *testing.T) {
	bus := eventbus.NewInMemoryEventBus(slog.Default())
	defer bus.Close()

	eventID := uuid.New()
	watcher := NewStateWatcher(bus, slog.Default())

	fired := make(chan struct{}, 1)
	watcher.OnStarted = func(eventtypes.StateChangedPayload) { fired <- struct{}{} }

	require.NoError(t, watcher.Watch(context.Background(), eventID))

	publishTransition(t, bus, eventID, eventdb.EventStateCountdown, eventdb.EventStateCountdown)

	select {
	case <-fired:
		t.Fatal("watcher fired on a non-transition")
	case <-time.After(200 * time.Millisecond):
	}
}
