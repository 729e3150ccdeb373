package eventservice

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/about-last-night/aln-backend/app/shared/attr"
	"github.com/about-last-night/aln-backend/app/shared/results"
	"github.com/about-last-night/aln-backend/pkg/jwt"

	eventtypes "github.com/about-last-night/aln-backend/app/modules/event/domain"
	eventdb "github.com/about-last-night/aln-backend/app/modules/event/infrastructure/repositories"
)

const (
	codeLength  = 6
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// maxCodeAttempts bounds collision retries during code generation.
	maxCodeAttempts = 10
)

// ErrCodeExhausted is returned when code generation keeps colliding.
var ErrCodeExhausted = errors.New("could not generate a unique event code")

func randomCode() string {
	var b strings.Builder
	b.Grow(codeLength)
	for i := 0; i < codeLength; i++ {
		b.WriteByte(codeCharset[rand.Intn(len(codeCharset))])
	}
	return b.String()
}

// generateUniqueCode draws random codes until one is free, up to
// maxCodeAttempts.
func (s *EventService) generateUniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := randomCode()
		exists, err := s.eventDB.CodeExists(ctx, nil, code)
		if err != nil {
			return "", fmt.Errorf("checking code uniqueness: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}

func validateCreateInput(input CreateEventInput) *eventtypes.Failure {
	switch {
	case strings.TrimSpace(input.Title) == "":
		return &eventtypes.Failure{Reason: eventtypes.FailureInvalid, Message: "title is required"}
	case strings.TrimSpace(input.CreatedBy) == "":
		return &eventtypes.Failure{Reason: eventtypes.FailureInvalid, Message: "created_by is required"}
	case !eventdb.ValidEventType(eventdb.EventType(input.EventType)):
		return &eventtypes.Failure{Reason: eventtypes.FailureInvalid, Message: fmt.Sprintf("unknown event type %q", input.EventType)}
	case input.MaxParticipants <= 0:
		return &eventtypes.Failure{Reason: eventtypes.FailureInvalid, Message: "max_participants must be positive"}
	case input.MaxPhotosPerUser <= 0:
		return &eventtypes.Failure{Reason: eventtypes.FailureInvalid, Message: "max_photos_per_user must be positive"}
	case input.DurationMinutes <= 0:
		return &eventtypes.Failure{Reason: eventtypes.FailureInvalid, Message: "duration_minutes must be positive"}
	}
	return nil
}

// CreateEvent creates an event in the not_started state and issues the
// creator token that authorizes lifecycle operations on it.
func (s *EventService) CreateEvent(ctx context.Context, input CreateEventInput) (results.OperationResult[CreatedEvent, eventtypes.Failure], error) {
	return withTelemetry(s, ctx, "CreateEvent", input.Title, func(ctx context.Context) (results.OperationResult[CreatedEvent, eventtypes.Failure], error) {
		if failure := validateCreateInput(input); failure != nil {
			return results.FailureResult[CreatedEvent](*failure), nil
		}

		code, err := s.generateUniqueCode(ctx)
		if err != nil {
			return results.OperationResult[CreatedEvent, eventtypes.Failure]{}, err
		}

		event := &eventdb.Event{
			Code:             code,
			Title:            strings.TrimSpace(input.Title),
			Description:      input.Description,
			EventType:        eventdb.EventType(input.EventType),
			MaxParticipants:  input.MaxParticipants,
			MaxPhotosPerUser: input.MaxPhotosPerUser,
			DurationMinutes:  input.DurationMinutes,
			State:            eventdb.EventStateNotStarted,
			CreatedBy:        strings.TrimSpace(input.CreatedBy),
		}

		if err := s.eventDB.Create(ctx, nil, event); err != nil {
			// A code collision between CodeExists and Create loses the race;
			// the client simply retries.
			if errors.Is(err, eventdb.ErrDuplicate) {
				return results.FailureResult[CreatedEvent](eventtypes.Failure{
					Reason:  eventtypes.FailureConflict,
					Message: "event code collision, please retry",
				}), nil
			}
			return results.OperationResult[CreatedEvent, eventtypes.Failure]{}, fmt.Errorf("creating event: %w", err)
		}

		token, err := s.tokens.GenerateToken(event.CreatedBy, event.ID.String(), jwt.RoleCreator, 0)
		if err != nil {
			return results.OperationResult[CreatedEvent, eventtypes.Failure]{}, fmt.Errorf("issuing creator token: %w", err)
		}

		s.logger.InfoContext(ctx, "Event created",
			attr.UUID("event_id", event.ID),
			attr.String("code", event.Code),
			attr.String("event_type", string(event.EventType)),
		)

		return results.SuccessResult[CreatedEvent, eventtypes.Failure](CreatedEvent{
			Event:        eventInfo(event),
			CreatorToken: token,
		}), nil
	})
}
