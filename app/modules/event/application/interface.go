package eventservice

import (
	"context"

	"github.com/google/uuid"

	eventtypes "github.com/about-last-night/aln-backend/app/modules/event/domain"
	"github.com/about-last-night/aln-backend/app/shared/results"
)

// CreateEventInput carries the creator-supplied event settings.
type CreateEventInput struct {
	Title            string
	Description      *string
	EventType        string
	MaxParticipants  int
	MaxPhotosPerUser int
	DurationMinutes  int
	CreatedBy        string
}

// CreatedEvent is returned from CreateEvent; the token authorizes the
// creator's lifecycle operations.
type CreatedEvent struct {
	Event        eventtypes.EventInfo `json:"event"`
	CreatorToken string               `json:"creator_token"`
}

// Service is the interface for event operations.
type Service interface {
	CreateEvent(ctx context.Context, input CreateEventInput) (results.OperationResult[CreatedEvent, eventtypes.Failure], error)
	GetEvent(ctx context.Context, eventID uuid.UUID) (results.OperationResult[eventtypes.EventInfo, eventtypes.Failure], error)
	GetEventByCode(ctx context.Context, code string) (results.OperationResult[eventtypes.EventInfo, eventtypes.Failure], error)
	JoinEvent(ctx context.Context, code string, userName string) (results.OperationResult[eventtypes.SessionInfo, eventtypes.Failure], error)
	ListParticipants(ctx context.Context, eventID uuid.UUID) (results.OperationResult[[]eventtypes.ParticipantInfo, eventtypes.Failure], error)
	GetParticipant(ctx context.Context, participantID uuid.UUID) (results.OperationResult[eventtypes.ParticipantInfo, eventtypes.Failure], error)
	DeactivateParticipant(ctx context.Context, eventID uuid.UUID, participantID uuid.UUID, caller string) (results.OperationResult[eventtypes.ParticipantInfo, eventtypes.Failure], error)
	StartEvent(ctx context.Context, eventID uuid.UUID, caller string) (results.OperationResult[eventtypes.EventInfo, eventtypes.Failure], error)
	EndEvent(ctx context.Context, eventID uuid.UUID, caller string) (results.OperationResult[eventtypes.EventInfo, eventtypes.Failure], error)
	EndEventBySystem(ctx context.Context, eventID uuid.UUID) error
}
