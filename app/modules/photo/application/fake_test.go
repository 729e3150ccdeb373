package photoservice

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	eventdb "github.com/about-last-night/aln-backend/app/modules/event/infrastructure/repositories"
	photodb "github.com/about-last-night/aln-backend/app/modules/photo/infrastructure/repositories"
)

// FakePhotoRepo fakes photodb.Repository with overridable behavior.
type FakePhotoRepo struct {
	Inserted []*photodb.Photo

	InsertFunc            func(ctx context.Context, db bun.IDB, photo *photodb.Photo) error
	GetByIDFunc           func(ctx context.Context, db bun.IDB, photoID uuid.UUID) (*photodb.Photo, error)
	ListByEventFunc       func(ctx context.Context, db bun.IDB, eventID uuid.UUID) ([]photodb.Photo, error)
	ListByParticipantFunc func(ctx context.Context, db bun.IDB, eventID, participantID uuid.UUID) ([]photodb.Photo, error)
	CountByEventFunc      func(ctx context.Context, db bun.IDB, eventID uuid.UUID) (int, error)
}

func (f *FakePhotoRepo) Insert(ctx context.Context, db bun.IDB, photo *photodb.Photo) error {
	if f.InsertFunc != nil {
		return f.InsertFunc(ctx, db, photo)
	}
	f.Inserted = append(f.Inserted, photo)
	return nil
}

func (f *FakePhotoRepo) GetByID(ctx context.Context, db bun.IDB, photoID uuid.UUID) (*photodb.Photo, error) {
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, db, photoID)
	}
	return nil, photodb.ErrNotFound
}

func (f *FakePhotoRepo) ListByEvent(ctx context.Context, db bun.IDB, eventID uuid.UUID) ([]photodb.Photo, error) {
	if f.ListByEventFunc != nil {
		return f.ListByEventFunc(ctx, db, eventID)
	}
	return nil, nil
}

func (f *FakePhotoRepo) ListByParticipant(ctx context.Context, db bun.IDB, eventID, participantID uuid.UUID) ([]photodb.Photo, error) {
	if f.ListByParticipantFunc != nil {
		return f.ListByParticipantFunc(ctx, db, eventID, participantID)
	}
	return nil, nil
}

func (f *FakePhotoRepo) CountByEvent(ctx context.Context, db bun.IDB, eventID uuid.UUID) (int, error) {
	if f.CountByEventFunc != nil {
		return f.CountByEventFunc(ctx, db, eventID)
	}
	return len(f.Inserted), nil
}

var _ photodb.Repository = (*FakePhotoRepo)(nil)

// FakeParticipantRepo fakes the slice of the participant repository the photo
// service touches.
type FakeParticipantRepo struct {
	Increments []uuid.UUID

	IncrementPhotosTakenFunc func(ctx context.Context, db bun.IDB, participantID uuid.UUID, takenAt time.Time) error
}

func (f *FakeParticipantRepo) FindByEventAndName(ctx context.Context, db bun.IDB, eventID uuid.UUID, userName string) (*eventdb.Participant, error) {
	return nil, eventdb.ErrParticipantNotFound
}

func (f *FakeParticipantRepo) GetByID(ctx context.Context, db bun.IDB, participantID uuid.UUID) (*eventdb.Participant, error) {
	return nil, eventdb.ErrParticipantNotFound
}

func (f *FakeParticipantRepo) Insert(ctx context.Context, db bun.IDB, participant *eventdb.Participant) error {
	return nil
}

func (f *FakeParticipantRepo) ListActive(ctx context.Context, db bun.IDB, eventID uuid.UUID) ([]eventdb.Participant, error) {
	return nil, nil
}

func (f *FakeParticipantRepo) CountActive(ctx context.Context, db bun.IDB, eventID uuid.UUID) (int, error) {
	return 0, nil
}

func (f *FakeParticipantRepo) IncrementPhotosTaken(ctx context.Context, db bun.IDB, participantID uuid.UUID, takenAt time.Time) error {
	if f.IncrementPhotosTakenFunc != nil {
		return f.IncrementPhotosTakenFunc(ctx, db, participantID, takenAt)
	}
	f.Increments = append(f.Increments, participantID)
	return nil
}

func (f *FakeParticipantRepo) SetActive(ctx context.Context, db bun.IDB, participantID uuid.UUID, active bool) error {
	return nil
}

var _ eventdb.ParticipantRepository = (*FakeParticipantRepo)(nil)

// FakeBlobStore fakes the blob store; FailFirst makes the first N Put calls
// fail before succeeding.
type FakeBlobStore struct {
	mu        sync.Mutex
	Calls     int
	Paths     []string
	FailFirst int
	Err       error
}

func (f *FakeBlobStore) Put(ctx context.Context, path, contentType string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Calls <= f.FailFirst {
		return "", f.Err
	}
	f.Paths = append(f.Paths, path)
	return "https://blobs.test/" + path, nil
}
