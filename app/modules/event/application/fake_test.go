package eventservice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	eventdb "github.com/about-last-night/aln-backend/app/modules/event/infrastructure/repositories"
)

// ------------------------
// Fake Event Repo
// ------------------------

type FakeEventRepo struct {
	trace []string

	CreateFunc      func(ctx context.Context, db bun.IDB, event *eventdb.Event) error
	GetByIDFunc     func(ctx context.Context, db bun.IDB, eventID uuid.UUID) (*eventdb.Event, error)
	GetByCodeFunc   func(ctx context.Context, db bun.IDB, code string) (*eventdb.Event, error)
	CodeExistsFunc  func(ctx context.Context, db bun.IDB, code string) (bool, error)
	UpdateStateFunc func(ctx context.Context, db bun.IDB, eventID uuid.UUID, state eventdb.EventState, countdownStart, endedAt *time.Time) error
}

func NewFakeEventRepo() *FakeEventRepo {
	return &FakeEventRepo{trace: []string{}}
}

func (f *FakeEventRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeEventRepo) Create(ctx context.Context, db bun.IDB, event *eventdb.Event) error {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, db, event)
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return nil
}

func (f *FakeEventRepo) GetByID(ctx context.Context, db bun.IDB, eventID uuid.UUID) (*eventdb.Event, error) {
	f.record("GetByID")
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, db, eventID)
	}
	return nil, eventdb.ErrNotFound
}

func (f *FakeEventRepo) GetByCode(ctx context.Context, db bun.IDB, code string) (*eventdb.Event, error) {
	f.record("GetByCode")
	if f.GetByCodeFunc != nil {
		return f.GetByCodeFunc(ctx, db, code)
	}
	return nil, eventdb.ErrNotFound
}

func (f *FakeEventRepo) CodeExists(ctx context.Context, db bun.IDB, code string) (bool, error) {
	f.record("CodeExists")
	if f.CodeExistsFunc != nil {
		return f.CodeExistsFunc(ctx, db, code)
	}
	return false, nil
}

func (f *FakeEventRepo) UpdateState(ctx context.Context, db bun.IDB, eventID uuid.UUID, state eventdb.EventState, countdownStart, endedAt *time.Time) error {
	f.record("UpdateState")
	if f.UpdateStateFunc != nil {
		return f.UpdateStateFunc(ctx, db, eventID, state, countdownStart, endedAt)
	}
	return nil
}

func (f *FakeEventRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ eventdb.Repository = (*FakeEventRepo)(nil)

// ------------------------
// Fake Participant Repo
// ------------------------

type FakeParticipantRepo struct {
	FindByEventAndNameFunc   func(ctx context.Context, db bun.IDB, eventID uuid.UUID, userName string) (*eventdb.Participant, error)
	GetByIDFunc              func(ctx context.Context, db bun.IDB, participantID uuid.UUID) (*eventdb.Participant, error)
	InsertFunc               func(ctx context.Context, db bun.IDB, participant *eventdb.Participant) error
	ListActiveFunc           func(ctx context.Context, db bun.IDB, eventID uuid.UUID) ([]eventdb.Participant, error)
	CountActiveFunc          func(ctx context.Context, db bun.IDB, eventID uuid.UUID) (int, error)
	IncrementPhotosTakenFunc func(ctx context.Context, db bun.IDB, participantID uuid.UUID, takenAt time.Time) error
	SetActiveFunc            func(ctx context.Context, db bun.IDB, participantID uuid.UUID, active bool) error
}

func (f *FakeParticipantRepo) FindByEventAndName(ctx context.Context, db bun.IDB, eventID uuid.UUID, userName string) (*eventdb.Participant, error) {
	if f.FindByEventAndNameFunc != nil {
		return f.FindByEventAndNameFunc(ctx, db, eventID, userName)
	}
	return nil, eventdb.ErrParticipantNotFound
}

func (f *FakeParticipantRepo) GetByID(ctx context.Context, db bun.IDB, participantID uuid.UUID) (*eventdb.Participant, error) {
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, db, participantID)
	}
	return nil, eventdb.ErrParticipantNotFound
}

func (f *FakeParticipantRepo) Insert(ctx context.Context, db bun.IDB, participant *eventdb.Participant) error {
	if f.InsertFunc != nil {
		return f.InsertFunc(ctx, db, participant)
	}
	if participant.ID == uuid.Nil {
		participant.ID = uuid.New()
	}
	return nil
}

func (f *FakeParticipantRepo) ListActive(ctx context.Context, db bun.IDB, eventID uuid.UUID) ([]eventdb.Participant, error) {
	if f.ListActiveFunc != nil {
		return f.ListActiveFunc(ctx, db, eventID)
	}
	return nil, nil
}

func (f *FakeParticipantRepo) CountActive(ctx context.Context, db bun.IDB, eventID uuid.UUID) (int, error) {
	if f.CountActiveFunc != nil {
		return f.CountActiveFunc(ctx, db, eventID)
	}
	return 0, nil
}

func (f *FakeParticipantRepo) IncrementPhotosTaken(ctx context.Context, db bun.IDB, participantID uuid.UUID, takenAt time.Time) error {
	if f.IncrementPhotosTakenFunc != nil {
		return f.IncrementPhotosTakenFunc(ctx, db, participantID, takenAt)
	}
	return nil
}

func (f *FakeParticipantRepo) SetActive(ctx context.Context, db bun.IDB, participantID uuid.UUID, active bool) error {
	if f.SetActiveFunc != nil {
		return f.SetActiveFunc(ctx, db, participantID, active)
	}
	return nil
}

var _ eventdb.ParticipantRepository = (*FakeParticipantRepo)(nil)

// ------------------------
// Fake End Scheduler
// ------------------------

type FakeScheduler struct {
	ScheduledEventIDs []uuid.UUID
	ScheduledAt       []time.Time
	CancelledEventIDs []uuid.UUID
	Err               error
}

func (f *FakeScheduler) ScheduleEventEnd(_ context.Context, eventID uuid.UUID, at time.Time) error {
	if f.Err != nil {
		return f.Err
	}
	f.ScheduledEventIDs = append(f.ScheduledEventIDs, eventID)
	f.ScheduledAt = append(f.ScheduledAt, at)
	return nil
}

func (f *FakeScheduler) CancelEventJobs(_ context.Context, eventID uuid.UUID) error {
	if f.Err != nil {
		return f.Err
	}
	f.CancelledEventIDs = append(f.CancelledEventIDs, eventID)
	return nil
}

var _ EndScheduler = (*FakeScheduler)(nil)
