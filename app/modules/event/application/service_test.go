package eventservice

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	eventtypes "github.com/about-last-night/aln-backend/app/modules/event/domain"
	eventdb "github.com/about-last-night/aln-backend/app/modules/event/infrastructure/repositories"
	"github.com/about-last-night/aln-backend/pkg/jwt"
)

func newTestService(eventRepo *FakeEventRepo, participantRepo *FakeParticipantRepo) *EventService {
	tokens := jwt.NewService("test-secret", time.Hour)
	return NewEventService(eventRepo, participantRepo, nil, tokens, slog.Default(), nil, nil)
}

func validInput() CreateEventInput {
	return CreateEventInput{
		Title:            "Anna & Ben",
		EventType:        "wedding",
		MaxParticipants:  50,
		MaxPhotosPerUser: 10,
		DurationMinutes:  180,
		CreatedBy:        "anna",
	}
}

func TestCreateEvent(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*CreateEventInput)
		setupRepo  func(*FakeEventRepo)
		wantReason eventtypes.FailureReason
		wantErr    bool
	}{
		{
			name: "happy path",
		},
		{
			name:       "missing title",
			mutate:     func(in *CreateEventInput) { in.Title = "  " },
			wantReason: eventtypes.FailureInvalid,
		},
		{
			name:       "unknown event type",
			mutate:     func(in *CreateEventInput) { in.EventType = "barbecue" },
			wantReason: eventtypes.FailureInvalid,
		},
		{
			name:       "non-positive quota",
			mutate:     func(in *CreateEventInput) { in.MaxPhotosPerUser = 0 },
			wantReason: eventtypes.FailureInvalid,
		},
		{
			name:       "non-positive duration",
			mutate:     func(in *CreateEventInput) { in.DurationMinutes = -5 },
			wantReason: eventtypes.FailureInvalid,
		},
		{
			name: "code generation exhausted",
			setupRepo: func(f *FakeEventRepo) {
				f.CodeExistsFunc = func(ctx context.Context, db bun.IDB, code string) (bool, error) {
					return true, nil
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eventRepo := NewFakeEventRepo()
			if tt.setupRepo != nil {
				tt.setupRepo(eventRepo)
			}
			svc := newTestService(eventRepo, &FakeParticipantRepo{})

			input := validInput()
			if tt.mutate != nil {
				tt.mutate(&input)
			}

			result, err := svc.CreateEvent(context.Background(), input)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			if tt.wantReason != "" {
				require.True(t, result.IsFailure())
				assert.Equal(t, tt.wantReason, result.Failure.Reason)
				return
			}

			require.True(t, result.IsSuccess())
			created := result.Success
			assert.Len(t, created.Event.Code, codeLength)
			assert.Equal(t, eventdb.EventStateNotStarted, created.Event.State)
			assert.NotEmpty(t, created.CreatorToken)
		})
	}
}

func TestCreateEventCodeCharset(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := randomCode()
		assert.Len(t, code, codeLength)
		for _, r := range code {
			assert.Contains(t, codeCharset, string(r))
		}
	}
}

func TestGenerateUniqueCodeRetriesCollisions(t *testing.T) {
	eventRepo := NewFakeEventRepo()
	calls := 0
	eventRepo.CodeExistsFunc = func(ctx context.Context, db bun.IDB, code string) (bool, error) {
		calls++
		return calls < 3, nil
	}
	svc := newTestService(eventRepo, &FakeParticipantRepo{})

	code, err := svc.generateUniqueCode(context.Background())
	require.NoError(t, err)
	assert.Len(t, code, codeLength)
	assert.Equal(t, 3, calls)
}

func TestJoinEvent(t *testing.T) {
	eventID := uuid.New()
	testEvent := &eventdb.Event{
		ID:               eventID,
		Code:             "AB12CD",
		Title:            "Anna & Ben",
		MaxParticipants:  2,
		MaxPhotosPerUser: 10,
		State:            eventdb.EventStateNotStarted,
		CreatedBy:        "anna",
	}

	tests := []struct {
		name        string
		userName    string
		setupEvents func(*FakeEventRepo)
		setupParts  func(*FakeParticipantRepo)
		wantReason  eventtypes.FailureReason
	}{
		{
			name:     "unknown code",
			userName: "carol",
			setupEvents: func(f *FakeEventRepo) {
				f.GetByCodeFunc = func(ctx context.Context, db bun.IDB, code string) (*eventdb.Event, error) {
					return nil, eventdb.ErrNotFound
				}
			},
			wantReason: eventtypes.FailureNotFound,
		},
		{
			name:     "event full",
			userName: "carol",
			setupEvents: func(f *FakeEventRepo) {
				f.GetByCodeFunc = func(ctx context.Context, db bun.IDB, code string) (*eventdb.Event, error) {
					return testEvent, nil
				}
			},
			setupParts: func(f *FakeParticipantRepo) {
				f.CountActiveFunc = func(ctx context.Context, db bun.IDB, eventID uuid.UUID) (int, error) {
					return 2, nil
				}
			},
			wantReason: eventtypes.FailureCapacity,
		},
		{
			name:     "ended event rejects joins",
			userName: "carol",
			setupEvents: func(f *FakeEventRepo) {
				f.GetByCodeFunc = func(ctx context.Context, db bun.IDB, code string) (*eventdb.Event, error) {
					ended := *testEvent
					ended.State = eventdb.EventStateEnded
					return &ended, nil
				}
			},
			wantReason: eventtypes.FailureConflict,
		},
		{
			name:       "blank name rejected",
			userName:   "   ",
			wantReason: eventtypes.FailureInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eventRepo := NewFakeEventRepo()
			participantRepo := &FakeParticipantRepo{}
			if tt.setupEvents != nil {
				tt.setupEvents(eventRepo)
			}
			if tt.setupParts != nil {
				tt.setupParts(participantRepo)
			}
			svc := newTestService(eventRepo, participantRepo)

			result, err := svc.JoinEvent(context.Background(), "ab12cd", tt.userName)
			require.NoError(t, err)
			require.True(t, result.IsFailure())
			assert.Equal(t, tt.wantReason, result.Failure.Reason)
		})
	}
}

func TestJoinEventIsIdempotentOnName(t *testing.T) {
	eventID := uuid.New()
	existingID := uuid.New()
	testEvent := &eventdb.Event{
		ID:              eventID,
		Code:            "AB12CD",
		Title:           "Anna & Ben",
		MaxParticipants: 50,
		State:           eventdb.EventStateCountdown,
	}

	eventRepo := NewFakeEventRepo()
	eventRepo.GetByCodeFunc = func(ctx context.Context, db bun.IDB, code string) (*eventdb.Event, error) {
		assert.Equal(t, "AB12CD", code)
		return testEvent, nil
	}

	participantRepo := &FakeParticipantRepo{}
	participantRepo.FindByEventAndNameFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID, userName string) (*eventdb.Participant, error) {
		return &eventdb.Participant{ID: existingID, EventID: eventID, UserName: userName, PhotosTaken: 4, IsActive: true}, nil
	}

	svc := newTestService(eventRepo, participantRepo)

	result, err := svc.JoinEvent(context.Background(), "ab12cd", "dave")
	require.NoError(t, err)
	require.True(t, result.IsSuccess())
	assert.Equal(t, existingID, result.Success.ParticipantID)
}

func TestJoinEventFoldsDuplicateRace(t *testing.T) {
	eventID := uuid.New()
	winnerID := uuid.New()
	testEvent := &eventdb.Event{
		ID:              eventID,
		Code:            "AB12CD",
		MaxParticipants: 50,
		State:           eventdb.EventStateNotStarted,
	}

	eventRepo := NewFakeEventRepo()
	eventRepo.GetByCodeFunc = func(ctx context.Context, db bun.IDB, code string) (*eventdb.Event, error) {
		return testEvent, nil
	}

	lookups := 0
	participantRepo := &FakeParticipantRepo{}
	participantRepo.FindByEventAndNameFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID, userName string) (*eventdb.Participant, error) {
		lookups++
		if lookups == 1 {
			return nil, eventdb.ErrParticipantNotFound
		}
		return &eventdb.Participant{ID: winnerID, EventID: eventID, UserName: userName, IsActive: true}, nil
	}
	participantRepo.InsertFunc = func(ctx context.Context, db bun.IDB, participant *eventdb.Participant) error {
		return eventdb.ErrDuplicate
	}

	svc := newTestService(eventRepo, participantRepo)

	result, err := svc.JoinEvent(context.Background(), "AB12CD", "dave")
	require.NoError(t, err)
	require.True(t, result.IsSuccess())
	assert.Equal(t, winnerID, result.Success.ParticipantID)
}

func TestStartEvent(t *testing.T) {
	eventID := uuid.New()
	baseEvent := func(state eventdb.EventState) *eventdb.Event {
		return &eventdb.Event{
			ID:              eventID,
			Code:            "AB12CD",
			State:           state,
			DurationMinutes: 120,
			CreatedBy:       "anna",
		}
	}

	tests := []struct {
		name          string
		state         eventdb.EventState
		caller        string
		wantReason    eventtypes.FailureReason
		wantState     eventdb.EventState
		wantScheduled bool
		wantUpdated   bool
	}{
		{
			name:          "not_started transitions to countdown",
			state:         eventdb.EventStateNotStarted,
			caller:        "anna",
			wantState:     eventdb.EventStateCountdown,
			wantScheduled: true,
			wantUpdated:   true,
		},
		{
			name:      "already running is a no-op",
			state:     eventdb.EventStateCountdown,
			caller:    "anna",
			wantState: eventdb.EventStateCountdown,
		},
		{
			name:      "ended stays ended",
			state:     eventdb.EventStateEnded,
			caller:    "anna",
			wantState: eventdb.EventStateEnded,
		},
		{
			name:       "non-creator forbidden",
			state:      eventdb.EventStateNotStarted,
			caller:     "mallory",
			wantReason: eventtypes.FailureForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eventRepo := NewFakeEventRepo()
			updated := false
			eventRepo.GetByIDFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) (*eventdb.Event, error) {
				return baseEvent(tt.state), nil
			}
			eventRepo.UpdateStateFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID, state eventdb.EventState, countdownStart, endedAt *time.Time) error {
				updated = true
				assert.Equal(t, eventdb.EventStateCountdown, state)
				assert.NotNil(t, countdownStart)
				return nil
			}

			svc := newTestService(eventRepo, &FakeParticipantRepo{})
			scheduler := &FakeScheduler{}
			svc.SetEndScheduler(scheduler)

			result, err := svc.StartEvent(context.Background(), eventID, tt.caller)
			require.NoError(t, err)

			if tt.wantReason != "" {
				require.True(t, result.IsFailure())
				assert.Equal(t, tt.wantReason, result.Failure.Reason)
				assert.False(t, updated)
				return
			}

			require.True(t, result.IsSuccess())
			assert.Equal(t, tt.wantState, result.Success.State)
			assert.Equal(t, tt.wantUpdated, updated)

			if tt.wantScheduled {
				require.Len(t, scheduler.ScheduledEventIDs, 1)
				assert.Equal(t, eventID, scheduler.ScheduledEventIDs[0])
				deadline := result.Success.CountdownStartTime.Add(120 * time.Minute)
				assert.Equal(t, deadline, scheduler.ScheduledAt[0])
			} else {
				assert.Empty(t, scheduler.ScheduledEventIDs)
			}
		})
	}
}

func TestEndEventIsIdempotent(t *testing.T) {
	eventID := uuid.New()
	endedAt := time.Now().UTC()
	state := eventdb.EventStateCountdown
	updates := 0

	eventRepo := NewFakeEventRepo()
	eventRepo.GetByIDFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) (*eventdb.Event, error) {
		e := &eventdb.Event{ID: eventID, State: state, CreatedBy: "anna", DurationMinutes: 60}
		if state == eventdb.EventStateEnded {
			e.EndedAt = &endedAt
		}
		return e, nil
	}
	eventRepo.UpdateStateFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID, s eventdb.EventState, countdownStart, ea *time.Time) error {
		updates++
		state = s
		return nil
	}

	svc := newTestService(eventRepo, &FakeParticipantRepo{})

	first, err := svc.EndEvent(context.Background(), eventID, "anna")
	require.NoError(t, err)
	require.True(t, first.IsSuccess())
	assert.Equal(t, eventdb.EventStateEnded, first.Success.State)
	assert.Equal(t, 1, updates)

	second, err := svc.EndEvent(context.Background(), eventID, "anna")
	require.NoError(t, err)
	require.True(t, second.IsSuccess())
	assert.Equal(t, eventdb.EventStateEnded, second.Success.State)
	assert.Equal(t, 1, updates, "repeat end must not write again")
}

func TestEndEventCancelsScheduledAutoEnd(t *testing.T) {
	eventID := uuid.New()
	state := eventdb.EventStateCountdown

	eventRepo := NewFakeEventRepo()
	eventRepo.GetByIDFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) (*eventdb.Event, error) {
		return &eventdb.Event{ID: eventID, State: state, CreatedBy: "anna", DurationMinutes: 60}, nil
	}
	eventRepo.UpdateStateFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID, s eventdb.EventState, countdownStart, endedAt *time.Time) error {
		state = s
		return nil
	}

	scheduler := &FakeScheduler{}
	svc := newTestService(eventRepo, &FakeParticipantRepo{})
	svc.SetEndScheduler(scheduler)

	result, err := svc.EndEvent(context.Background(), eventID, "anna")
	require.NoError(t, err)
	require.True(t, result.IsSuccess())
	assert.Equal(t, []uuid.UUID{eventID}, scheduler.CancelledEventIDs)
}

func TestEndEventBySystemDoesNotCancelJobs(t *testing.T) {
	eventID := uuid.New()
	state := eventdb.EventStateCountdown

	eventRepo := NewFakeEventRepo()
	eventRepo.GetByIDFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) (*eventdb.Event, error) {
		return &eventdb.Event{ID: eventID, State: state, CreatedBy: "anna", DurationMinutes: 60}, nil
	}
	eventRepo.UpdateStateFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID, s eventdb.EventState, countdownStart, endedAt *time.Time) error {
		state = s
		return nil
	}

	scheduler := &FakeScheduler{}
	svc := newTestService(eventRepo, &FakeParticipantRepo{})
	svc.SetEndScheduler(scheduler)

	// The system path runs from the scheduled job itself.
	require.NoError(t, svc.EndEventBySystem(context.Background(), eventID))
	assert.Empty(t, scheduler.CancelledEventIDs)
}

func TestEndEventForbiddenForNonCreator(t *testing.T) {
	eventID := uuid.New()
	eventRepo := NewFakeEventRepo()
	eventRepo.GetByIDFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) (*eventdb.Event, error) {
		return &eventdb.Event{ID: eventID, State: eventdb.EventStateCountdown, CreatedBy: "anna"}, nil
	}

	svc := newTestService(eventRepo, &FakeParticipantRepo{})

	result, err := svc.EndEvent(context.Background(), eventID, "mallory")
	require.NoError(t, err)
	require.True(t, result.IsFailure())
	assert.Equal(t, eventtypes.FailureForbidden, result.Failure.Reason)
}

func TestEndEventBySystemSkipsCreatorCheck(t *testing.T) {
	eventID := uuid.New()
	eventRepo := NewFakeEventRepo()
	eventRepo.GetByIDFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) (*eventdb.Event, error) {
		return &eventdb.Event{ID: eventID, State: eventdb.EventStateCountdown, CreatedBy: "anna"}, nil
	}

	svc := newTestService(eventRepo, &FakeParticipantRepo{})

	err := svc.EndEventBySystem(context.Background(), eventID)
	assert.NoError(t, err)
}

func TestEndEventBySystemToleratesMissingEvent(t *testing.T) {
	svc := newTestService(NewFakeEventRepo(), &FakeParticipantRepo{})

	err := svc.EndEventBySystem(context.Background(), uuid.New())
	assert.NoError(t, err)
}

func TestStartEventPropagatesRepoError(t *testing.T) {
	eventRepo := NewFakeEventRepo()
	eventRepo.GetByIDFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) (*eventdb.Event, error) {
		return nil, errors.New("connection refused")
	}

	svc := newTestService(eventRepo, &FakeParticipantRepo{})

	_, err := svc.StartEvent(context.Background(), uuid.New(), "anna")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "StartEvent"))
}
