package eventservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/about-last-night/aln-backend/app/eventbus"
	eventtypes "github.com/about-last-night/aln-backend/app/modules/event/domain"
	eventdb "github.com/about-last-night/aln-backend/app/modules/event/infrastructure/repositories"
	"github.com/about-last-night/aln-backend/app/metrics"
	"github.com/about-last-night/aln-backend/app/shared/attr"
	"github.com/about-last-night/aln-backend/app/shared/results"
	"github.com/about-last-night/aln-backend/pkg/jwt"
)

// EndScheduler schedules the automatic end of an event at countdown expiry
// and cancels it when the creator ends the event manually.
type EndScheduler interface {
	ScheduleEventEnd(ctx context.Context, eventID uuid.UUID, at time.Time) error
	CancelEventJobs(ctx context.Context, eventID uuid.UUID) error
}

// EventService implements the Service interface.
type EventService struct {
	eventDB       eventdb.Repository
	participantDB eventdb.ParticipantRepository
	eventBus      eventbus.EventBus
	tokens        jwt.Service
	scheduler     EndScheduler
	logger        *slog.Logger
	metrics       metrics.Metrics
	db            *bun.DB
	now           func() time.Time
}

// NewEventService creates a new EventService. The scheduler may be wired
// later with SetEndScheduler because the queue worker needs the service back.
func NewEventService(
	eventDB eventdb.Repository,
	participantDB eventdb.ParticipantRepository,
	bus eventbus.EventBus,
	tokens jwt.Service,
	logger *slog.Logger,
	m metrics.Metrics,
	db *bun.DB,
) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewNoop()
	}
	return &EventService{
		eventDB:       eventDB,
		participantDB: participantDB,
		eventBus:      bus,
		tokens:        tokens,
		logger:        logger,
		metrics:       m,
		db:            db,
		now:           time.Now,
	}
}

// SetEndScheduler wires the auto-end scheduler.
func (s *EventService) SetEndScheduler(scheduler EndScheduler) {
	s.scheduler = scheduler
}

// publishStateChanged notifies all subscribers of a lifecycle transition.
// Publish failures are logged, not returned: the database transition already
// happened and clients reconcile on their next read.
func (s *EventService) publishStateChanged(ctx context.Context, event *eventdb.Event, oldState eventdb.EventState) {
	if s.eventBus == nil {
		return
	}

	payload := eventtypes.StateChangedPayload{
		EventID:            event.ID,
		OldState:           oldState,
		NewState:           event.State,
		CountdownStartTime: event.CountdownStartTime,
		DurationMinutes:    event.DurationMinutes,
	}

	msg, err := eventbus.NewMessage(payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to build state-changed message",
			attr.UUID("event_id", event.ID),
			attr.Error(err),
		)
		return
	}

	if err := s.eventBus.Publish(ctx, eventtypes.StateChangedTopic(event.ID), msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish state change",
			attr.UUID("event_id", event.ID),
			attr.String("new_state", string(event.State)),
			attr.Error(err),
		)
	}
}

func eventInfo(e *eventdb.Event) eventtypes.EventInfo {
	return eventtypes.EventInfo{
		ID:                 e.ID,
		Code:               e.Code,
		Title:              e.Title,
		Description:        e.Description,
		EventType:          e.EventType,
		MaxParticipants:    e.MaxParticipants,
		MaxPhotosPerUser:   e.MaxPhotosPerUser,
		DurationMinutes:    e.DurationMinutes,
		State:              e.State,
		CountdownStartTime: e.CountdownStartTime,
		EndedAt:            e.EndedAt,
		CreatedBy:          e.CreatedBy,
		CreatedAt:          e.CreatedAt,
	}
}

func participantInfo(p *eventdb.Participant) eventtypes.ParticipantInfo {
	return eventtypes.ParticipantInfo{
		ID:          p.ID,
		EventID:     p.EventID,
		UserName:    p.UserName,
		PhotosTaken: p.PhotosTaken,
		IsActive:    p.IsActive,
		JoinedAt:    p.JoinedAt,
		LastPhotoAt: p.LastPhotoAt,
	}
}

// -----------------------------------------------------------------------------
// Generic helpers (functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with logging, metrics, and panic
// recovery.
func withTelemetry[S any, F any](
	s *EventService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	s.metrics.RecordOperationAttempt(ctx, operationName, "EventService")

	startTime := s.now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, "EventService", time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.String("operation", operationName),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, "EventService")
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, "EventService")
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure", *result.Failure),
		)
	}

	s.metrics.RecordOperationSuccess(ctx, operationName, "EventService")
	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *EventService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}
