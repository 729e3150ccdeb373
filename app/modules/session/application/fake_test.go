package sessionservice

import (
	"context"

	"github.com/google/uuid"

	eventtypes "github.com/about-last-night/aln-backend/app/modules/event/domain"
	"github.com/about-last-night/aln-backend/app/shared/results"
)

// FakeDirectory fakes the slice of the event module the session module uses.
type FakeDirectory struct {
	JoinEventFunc      func(ctx context.Context, code string, userName string) (results.OperationResult[eventtypes.SessionInfo, eventtypes.Failure], error)
	GetEventByCodeFunc func(ctx context.Context, code string) (results.OperationResult[eventtypes.EventInfo, eventtypes.Failure], error)
	GetParticipantFunc func(ctx context.Context, participantID uuid.UUID) (results.OperationResult[eventtypes.ParticipantInfo, eventtypes.Failure], error)
}

func (f *FakeDirectory) JoinEvent(ctx context.Context, code string, userName string) (results.OperationResult[eventtypes.SessionInfo, eventtypes.Failure], error) {
	if f.JoinEventFunc != nil {
		return f.JoinEventFunc(ctx, code, userName)
	}
	return results.FailureResult[eventtypes.SessionInfo](eventtypes.Failure{
		Reason: eventtypes.FailureNotFound,
	}), nil
}

func (f *FakeDirectory) GetEventByCode(ctx context.Context, code string) (results.OperationResult[eventtypes.EventInfo, eventtypes.Failure], error) {
	if f.GetEventByCodeFunc != nil {
		return f.GetEventByCodeFunc(ctx, code)
	}
	return results.FailureResult[eventtypes.EventInfo](eventtypes.Failure{
		Reason: eventtypes.FailureNotFound,
	}), nil
}

func (f *FakeDirectory) GetParticipant(ctx context.Context, participantID uuid.UUID) (results.OperationResult[eventtypes.ParticipantInfo, eventtypes.Failure], error) {
	if f.GetParticipantFunc != nil {
		return f.GetParticipantFunc(ctx, participantID)
	}
	return results.FailureResult[eventtypes.ParticipantInfo](eventtypes.Failure{
		Reason: eventtypes.FailureNotFound,
	}), nil
}

var _ EventDirectory = (*FakeDirectory)(nil)
