package eventservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	eventtypes "github.com/about-last-night/aln-backend/app/modules/event/domain"
	eventdb "github.com/about-last-night/aln-backend/app/modules/event/infrastructure/repositories"
	"github.com/about-last-night/aln-backend/app/shared/attr"
	"github.com/about-last-night/aln-backend/app/shared/results"
)

// JoinEvent enrols a guest in an event by code. Joining is idempotent on
// (event, user_name): rejoining with the same name returns the existing
// membership instead of a new one, so a reinstalled device recovers its
// identity and its photo count.
func (s *EventService) JoinEvent(ctx context.Context, code string, userName string) (results.OperationResult[eventtypes.SessionInfo, eventtypes.Failure], error) {
	userName = strings.TrimSpace(userName)

	return withTelemetry(s, ctx, "JoinEvent", code, func(ctx context.Context) (results.OperationResult[eventtypes.SessionInfo, eventtypes.Failure], error) {
		if userName == "" {
			return results.FailureResult[eventtypes.SessionInfo](eventtypes.Failure{
				Reason:  eventtypes.FailureInvalid,
				Message: "user name is required",
			}), nil
		}

		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[eventtypes.SessionInfo, eventtypes.Failure], error) {
			event, err := s.eventDB.GetByCode(ctx, db, code)
			if err != nil {
				if errors.Is(err, eventdb.ErrNotFound) {
					return results.FailureResult[eventtypes.SessionInfo](eventtypes.Failure{
						Reason:  eventtypes.FailureNotFound,
						Message: "no event with that code",
					}), nil
				}
				return results.OperationResult[eventtypes.SessionInfo, eventtypes.Failure]{}, fmt.Errorf("looking up event: %w", err)
			}

			if event.State == eventdb.EventStateEnded {
				return results.FailureResult[eventtypes.SessionInfo](eventtypes.Failure{
					Reason:  eventtypes.FailureConflict,
					Message: "event has ended",
				}), nil
			}

			existing, err := s.participantDB.FindByEventAndName(ctx, db, event.ID, userName)
			if err != nil && !errors.Is(err, eventdb.ErrParticipantNotFound) {
				return results.OperationResult[eventtypes.SessionInfo, eventtypes.Failure]{}, fmt.Errorf("looking up participant: %w", err)
			}
			if existing != nil {
				if !existing.IsActive {
					if err := s.participantDB.SetActive(ctx, db, existing.ID, true); err != nil {
						return results.OperationResult[eventtypes.SessionInfo, eventtypes.Failure]{}, fmt.Errorf("reactivating participant: %w", err)
					}
				}
				return results.SuccessResult[eventtypes.SessionInfo, eventtypes.Failure](sessionInfo(event, existing)), nil
			}

			count, err := s.participantDB.CountActive(ctx, db, event.ID)
			if err != nil {
				return results.OperationResult[eventtypes.SessionInfo, eventtypes.Failure]{}, fmt.Errorf("counting participants: %w", err)
			}
			if count >= event.MaxParticipants {
				return results.FailureResult[eventtypes.SessionInfo](eventtypes.Failure{
					Reason:  eventtypes.FailureCapacity,
					Message: "event is full",
				}), nil
			}

			participant := &eventdb.Participant{
				EventID:  event.ID,
				UserName: userName,
				IsActive: true,
			}
			if err := s.participantDB.Insert(ctx, db, participant); err != nil {
				// A concurrent join with the same name wins the unique index;
				// fold into the idempotent path.
				if errors.Is(err, eventdb.ErrDuplicate) {
					existing, rerr := s.participantDB.FindByEventAndName(ctx, db, event.ID, userName)
					if rerr != nil {
						return results.OperationResult[eventtypes.SessionInfo, eventtypes.Failure]{}, fmt.Errorf("re-reading participant after duplicate: %w", rerr)
					}
					return results.SuccessResult[eventtypes.SessionInfo, eventtypes.Failure](sessionInfo(event, existing)), nil
				}
				return results.OperationResult[eventtypes.SessionInfo, eventtypes.Failure]{}, fmt.Errorf("inserting participant: %w", err)
			}

			s.logger.InfoContext(ctx, "Participant joined",
				attr.UUID("event_id", event.ID),
				attr.String("user_name", userName),
			)

			return results.SuccessResult[eventtypes.SessionInfo, eventtypes.Failure](sessionInfo(event, participant)), nil
		})
	})
}

func sessionInfo(event *eventdb.Event, p *eventdb.Participant) eventtypes.SessionInfo {
	return eventtypes.SessionInfo{
		EventID:       event.ID,
		EventCode:     event.Code,
		EventTitle:    event.Title,
		ParticipantID: p.ID,
		UserName:      p.UserName,
	}
}

// GetEvent retrieves an event by ID.
func (s *EventService) GetEvent(ctx context.Context, eventID uuid.UUID) (results.OperationResult[eventtypes.EventInfo, eventtypes.Failure], error) {
	return withTelemetry(s, ctx, "GetEvent", eventID.String(), func(ctx context.Context) (results.OperationResult[eventtypes.EventInfo, eventtypes.Failure], error) {
		event, err := s.eventDB.GetByID(ctx, nil, eventID)
		if err != nil {
			if errors.Is(err, eventdb.ErrNotFound) {
				return results.FailureResult[eventtypes.EventInfo](eventtypes.Failure{
					Reason:  eventtypes.FailureNotFound,
					Message: "event not found",
				}), nil
			}
			return results.OperationResult[eventtypes.EventInfo, eventtypes.Failure]{}, fmt.Errorf("looking up event: %w", err)
		}
		return results.SuccessResult[eventtypes.EventInfo, eventtypes.Failure](eventInfo(event)), nil
	})
}

// GetEventByCode retrieves an event by its join code.
func (s *EventService) GetEventByCode(ctx context.Context, code string) (results.OperationResult[eventtypes.EventInfo, eventtypes.Failure], error) {
	return withTelemetry(s, ctx, "GetEventByCode", code, func(ctx context.Context) (results.OperationResult[eventtypes.EventInfo, eventtypes.Failure], error) {
		event, err := s.eventDB.GetByCode(ctx, nil, code)
		if err != nil {
			if errors.Is(err, eventdb.ErrNotFound) {
				return results.FailureResult[eventtypes.EventInfo](eventtypes.Failure{
					Reason:  eventtypes.FailureNotFound,
					Message: "no event with that code",
				}), nil
			}
			return results.OperationResult[eventtypes.EventInfo, eventtypes.Failure]{}, fmt.Errorf("looking up event: %w", err)
		}
		return results.SuccessResult[eventtypes.EventInfo, eventtypes.Failure](eventInfo(event)), nil
	})
}

// ListParticipants returns the active participants of an event, oldest first.
func (s *EventService) ListParticipants(ctx context.Context, eventID uuid.UUID) (results.OperationResult[[]eventtypes.ParticipantInfo, eventtypes.Failure], error) {
	return withTelemetry(s, ctx, "ListParticipants", eventID.String(), func(ctx context.Context) (results.OperationResult[[]eventtypes.ParticipantInfo, eventtypes.Failure], error) {
		if _, err := s.eventDB.GetByID(ctx, nil, eventID); err != nil {
			if errors.Is(err, eventdb.ErrNotFound) {
				return results.FailureResult[[]eventtypes.ParticipantInfo](eventtypes.Failure{
					Reason:  eventtypes.FailureNotFound,
					Message: "event not found",
				}), nil
			}
			return results.OperationResult[[]eventtypes.ParticipantInfo, eventtypes.Failure]{}, fmt.Errorf("looking up event: %w", err)
		}

		participants, err := s.participantDB.ListActive(ctx, nil, eventID)
		if err != nil {
			return results.OperationResult[[]eventtypes.ParticipantInfo, eventtypes.Failure]{}, fmt.Errorf("listing participants: %w", err)
		}

		infos := make([]eventtypes.ParticipantInfo, 0, len(participants))
		for i := range participants {
			infos = append(infos, participantInfo(&participants[i]))
		}
		return results.SuccessResult[[]eventtypes.ParticipantInfo, eventtypes.Failure](infos), nil
	})
}

// GetParticipant retrieves a participant by ID.
func (s *EventService) GetParticipant(ctx context.Context, participantID uuid.UUID) (results.OperationResult[eventtypes.ParticipantInfo, eventtypes.Failure], error) {
	return withTelemetry(s, ctx, "GetParticipant", participantID.String(), func(ctx context.Context) (results.OperationResult[eventtypes.ParticipantInfo, eventtypes.Failure], error) {
		p, err := s.participantDB.GetByID(ctx, nil, participantID)
		if err != nil {
			if errors.Is(err, eventdb.ErrParticipantNotFound) {
				return results.FailureResult[eventtypes.ParticipantInfo](eventtypes.Failure{
					Reason:  eventtypes.FailureNotFound,
					Message: "participant not found",
				}), nil
			}
			return results.OperationResult[eventtypes.ParticipantInfo, eventtypes.Failure]{}, fmt.Errorf("looking up participant: %w", err)
		}
		return results.SuccessResult[eventtypes.ParticipantInfo, eventtypes.Failure](participantInfo(p)), nil
	})
}

// DeactivateParticipant flips a participant inactive. Only the event creator
// may do this.
func (s *EventService) DeactivateParticipant(ctx context.Context, eventID uuid.UUID, participantID uuid.UUID, caller string) (results.OperationResult[eventtypes.ParticipantInfo, eventtypes.Failure], error) {
	return withTelemetry(s, ctx, "DeactivateParticipant", participantID.String(), func(ctx context.Context) (results.OperationResult[eventtypes.ParticipantInfo, eventtypes.Failure], error) {
		event, err := s.eventDB.GetByID(ctx, nil, eventID)
		if err != nil {
			if errors.Is(err, eventdb.ErrNotFound) {
				return results.FailureResult[eventtypes.ParticipantInfo](eventtypes.Failure{
					Reason:  eventtypes.FailureNotFound,
					Message: "event not found",
				}), nil
			}
			return results.OperationResult[eventtypes.ParticipantInfo, eventtypes.Failure]{}, fmt.Errorf("looking up event: %w", err)
		}
		if event.CreatedBy != caller {
			return results.FailureResult[eventtypes.ParticipantInfo](eventtypes.Failure{
				Reason:  eventtypes.FailureForbidden,
				Message: "only the event creator may remove participants",
			}), nil
		}

		p, err := s.participantDB.GetByID(ctx, nil, participantID)
		if err != nil {
			if errors.Is(err, eventdb.ErrParticipantNotFound) {
				return results.FailureResult[eventtypes.ParticipantInfo](eventtypes.Failure{
					Reason:  eventtypes.FailureNotFound,
					Message: "participant not found",
				}), nil
			}
			return results.OperationResult[eventtypes.ParticipantInfo, eventtypes.Failure]{}, fmt.Errorf("looking up participant: %w", err)
		}
		if p.EventID != eventID {
			return results.FailureResult[eventtypes.ParticipantInfo](eventtypes.Failure{
				Reason:  eventtypes.FailureNotFound,
				Message: "participant not found in this event",
			}), nil
		}

		if err := s.participantDB.SetActive(ctx, nil, participantID, false); err != nil {
			return results.OperationResult[eventtypes.ParticipantInfo, eventtypes.Failure]{}, fmt.Errorf("deactivating participant: %w", err)
		}
		p.IsActive = false

		return results.SuccessResult[eventtypes.ParticipantInfo, eventtypes.Failure](participantInfo(p)), nil
	})
}
