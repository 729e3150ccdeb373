package eventdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for event persistence.
type Repository interface {
	// Create inserts a new event.
	Create(ctx context.Context, db bun.IDB, event *Event) error

	// GetByID retrieves an event by its ID.
	GetByID(ctx context.Context, db bun.IDB, eventID uuid.UUID) (*Event, error)

	// GetByCode retrieves an event by its join code (canonical uppercase form).
	GetByCode(ctx context.Context, db bun.IDB, code string) (*Event, error)

	// CodeExists reports whether a join code is already taken.
	CodeExists(ctx context.Context, db bun.IDB, code string) (bool, error)

	// UpdateState transitions the lifecycle fields of an event.
	UpdateState(ctx context.Context, db bun.IDB, eventID uuid.UUID, state EventState, countdownStart, endedAt *time.Time) error
}

// ParticipantRepository defines the contract for participant persistence.
type ParticipantRepository interface {
	// FindByEventAndName retrieves a participant by its natural key.
	FindByEventAndName(ctx context.Context, db bun.IDB, eventID uuid.UUID, userName string) (*Participant, error)

	// GetByID retrieves a participant by its ID.
	GetByID(ctx context.Context, db bun.IDB, participantID uuid.UUID) (*Participant, error)

	// Insert creates a participant row. A duplicate (event_id, user_name)
	// insert fails with ErrDuplicate.
	Insert(ctx context.Context, db bun.IDB, participant *Participant) error

	// ListActive returns the active participants of an event, oldest first.
	ListActive(ctx context.Context, db bun.IDB, eventID uuid.UUID) ([]Participant, error)

	// CountActive returns the number of active participants of an event.
	CountActive(ctx context.Context, db bun.IDB, eventID uuid.UUID) (int, error)

	// IncrementPhotosTaken bumps the authoritative photo count and stamps
	// last_photo_at.
	IncrementPhotosTaken(ctx context.Context, db bun.IDB, participantID uuid.UUID, takenAt time.Time) error

	// SetActive flips a participant's active flag.
	SetActive(ctx context.Context, db bun.IDB, participantID uuid.UUID, active bool) error
}
