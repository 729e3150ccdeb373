package eventservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	eventtypes "github.com/about-last-night/aln-backend/app/modules/event/domain"
	eventdb "github.com/about-last-night/aln-backend/app/modules/event/infrastructure/repositories"
	"github.com/about-last-night/aln-backend/app/shared/attr"
	"github.com/about-last-night/aln-backend/app/shared/results"
)

// StartEvent transitions an event from not_started to countdown, stamping the
// countdown start time and scheduling the automatic end. The lifecycle only
// moves forward: starting an ended event is a no-op that reports the terminal
// state, and starting an already-running event just returns it.
func (s *EventService) StartEvent(ctx context.Context, eventID uuid.UUID, caller string) (results.OperationResult[eventtypes.EventInfo, eventtypes.Failure], error) {
	return withTelemetry(s, ctx, "StartEvent", eventID.String(), func(ctx context.Context) (results.OperationResult[eventtypes.EventInfo, eventtypes.Failure], error) {
		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[eventtypes.EventInfo, eventtypes.Failure], error) {
			event, err := s.eventDB.GetByID(ctx, db, eventID)
			if err != nil {
				if errors.Is(err, eventdb.ErrNotFound) {
					return results.FailureResult[eventtypes.EventInfo](eventtypes.Failure{
						Reason:  eventtypes.FailureNotFound,
						Message: "event not found",
					}), nil
				}
				return results.OperationResult[eventtypes.EventInfo, eventtypes.Failure]{}, fmt.Errorf("looking up event: %w", err)
			}

			if event.CreatedBy != caller {
				return results.FailureResult[eventtypes.EventInfo](eventtypes.Failure{
					Reason:  eventtypes.FailureForbidden,
					Message: "only the event creator may start the event",
				}), nil
			}

			switch event.State {
			case eventdb.EventStateCountdown, eventdb.EventStateEnded:
				return results.SuccessResult[eventtypes.EventInfo, eventtypes.Failure](eventInfo(event)), nil
			}

			start := s.now().UTC()
			if err := s.eventDB.UpdateState(ctx, db, eventID, eventdb.EventStateCountdown, &start, nil); err != nil {
				return results.OperationResult[eventtypes.EventInfo, eventtypes.Failure]{}, fmt.Errorf("starting event: %w", err)
			}
			event.State = eventdb.EventStateCountdown
			event.CountdownStartTime = &start

			return results.SuccessResult[eventtypes.EventInfo, eventtypes.Failure](eventInfo(event)), nil
		})
		if err != nil || result.IsFailure() {
			return result, err
		}

		event := result.Success
		if event.State != eventdb.EventStateCountdown || event.CountdownStartTime == nil {
			return result, nil
		}

		// Side effects only after the transaction commits.
		s.afterStart(ctx, event)
		return result, nil
	})
}

func (s *EventService) afterStart(ctx context.Context, event *eventtypes.EventInfo) {
	deadline := event.CountdownStartTime.Add(time.Duration(event.DurationMinutes) * time.Minute)

	if s.scheduler != nil {
		if err := s.scheduler.ScheduleEventEnd(ctx, event.ID, deadline); err != nil {
			s.logger.ErrorContext(ctx, "Failed to schedule auto-end",
				attr.UUID("event_id", event.ID),
				attr.Time("deadline", deadline),
				attr.Error(err),
			)
		}
	}

	s.publishStateChanged(ctx, &eventdb.Event{
		ID:                 event.ID,
		State:              event.State,
		CountdownStartTime: event.CountdownStartTime,
		DurationMinutes:    event.DurationMinutes,
	}, eventdb.EventStateNotStarted)

	s.logger.InfoContext(ctx, "Event started",
		attr.UUID("event_id", event.ID),
		attr.Time("deadline", deadline),
	)
}

// EndEvent transitions an event to the terminal ended state. Ending twice is
// a harmless no-op, which also makes the creator's manual end and the
// scheduled auto-end safe to race.
func (s *EventService) EndEvent(ctx context.Context, eventID uuid.UUID, caller string) (results.OperationResult[eventtypes.EventInfo, eventtypes.Failure], error) {
	return withTelemetry(s, ctx, "EndEvent", eventID.String(), func(ctx context.Context) (results.OperationResult[eventtypes.EventInfo, eventtypes.Failure], error) {
		return s.endEvent(ctx, eventID, &caller)
	})
}

// EndEventBySystem is the auto-end path taken by the scheduled job at
// countdown expiry. It bypasses the creator check.
func (s *EventService) EndEventBySystem(ctx context.Context, eventID uuid.UUID) error {
	result, err := withTelemetry(s, ctx, "EndEventBySystem", eventID.String(), func(ctx context.Context) (results.OperationResult[eventtypes.EventInfo, eventtypes.Failure], error) {
		return s.endEvent(ctx, eventID, nil)
	})
	if err != nil {
		return err
	}
	if result.IsFailure() && result.Failure.Reason != eventtypes.FailureNotFound {
		return fmt.Errorf("auto-end rejected: %s", result.Failure.Message)
	}
	return nil
}

func (s *EventService) endEvent(ctx context.Context, eventID uuid.UUID, caller *string) (results.OperationResult[eventtypes.EventInfo, eventtypes.Failure], error) {
	var priorState eventdb.EventState

	result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[eventtypes.EventInfo, eventtypes.Failure], error) {
		event, err := s.eventDB.GetByID(ctx, db, eventID)
		if err != nil {
			if errors.Is(err, eventdb.ErrNotFound) {
				return results.FailureResult[eventtypes.EventInfo](eventtypes.Failure{
					Reason:  eventtypes.FailureNotFound,
					Message: "event not found",
				}), nil
			}
			return results.OperationResult[eventtypes.EventInfo, eventtypes.Failure]{}, fmt.Errorf("looking up event: %w", err)
		}

		if caller != nil && event.CreatedBy != *caller {
			return results.FailureResult[eventtypes.EventInfo](eventtypes.Failure{
				Reason:  eventtypes.FailureForbidden,
				Message: "only the event creator may end the event",
			}), nil
		}

		priorState = event.State
		if event.State == eventdb.EventStateEnded {
			return results.SuccessResult[eventtypes.EventInfo, eventtypes.Failure](eventInfo(event)), nil
		}

		endedAt := s.now().UTC()
		if err := s.eventDB.UpdateState(ctx, db, eventID, eventdb.EventStateEnded, event.CountdownStartTime, &endedAt); err != nil {
			return results.OperationResult[eventtypes.EventInfo, eventtypes.Failure]{}, fmt.Errorf("ending event: %w", err)
		}
		event.State = eventdb.EventStateEnded
		event.EndedAt = &endedAt

		return results.SuccessResult[eventtypes.EventInfo, eventtypes.Failure](eventInfo(event)), nil
	})
	if err != nil || result.IsFailure() {
		return result, err
	}

	if priorState != eventdb.EventStateEnded {
		event := result.Success

		// A manual end leaves the auto-end job pending; cancel it rather
		// than letting it fire into a no-op.
		if caller != nil && s.scheduler != nil {
			if err := s.scheduler.CancelEventJobs(ctx, event.ID); err != nil {
				s.logger.WarnContext(ctx, "Failed to cancel scheduled auto-end",
					attr.UUID("event_id", event.ID),
					attr.Error(err),
				)
			}
		}

		s.publishStateChanged(ctx, &eventdb.Event{
			ID:                 event.ID,
			State:              event.State,
			CountdownStartTime: event.CountdownStartTime,
			DurationMinutes:    event.DurationMinutes,
			EndedAt:            event.EndedAt,
		}, priorState)

		s.logger.InfoContext(ctx, "Event ended",
			attr.UUID("event_id", event.ID),
			attr.String("prior_state", string(priorState)),
		)
	}

	return result, nil
}
