package eventdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrParticipantNotFound is returned when a participant is not found.
var ErrParticipantNotFound = errors.New("participant not found")

// ParticipantImpl implements the ParticipantRepository interface using Bun ORM.
type ParticipantImpl struct {
	db bun.IDB
}

// NewParticipantRepository creates a new participant repository.
func NewParticipantRepository(db bun.IDB) ParticipantRepository {
	return &ParticipantImpl{db: db}
}

func (r *ParticipantImpl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// FindByEventAndName retrieves a participant by its natural key.
func (r *ParticipantImpl) FindByEventAndName(ctx context.Context, db bun.IDB, eventID uuid.UUID, userName string) (*Participant, error) {
	db = r.resolveDB(db)
	participant := new(Participant)
	err := db.NewSelect().
		Model(participant).
		Where("event_id = ?", eventID).
		Where("user_name = ?", userName).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return participant, nil
}

// GetByID retrieves a participant by its ID.
func (r *ParticipantImpl) GetByID(ctx context.Context, db bun.IDB, participantID uuid.UUID) (*Participant, error) {
	db = r.resolveDB(db)
	participant := new(Participant)
	err := db.NewSelect().
		Model(participant).
		Where("id = ?", participantID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to get participant by ID: %w", err)
	}
	return participant, nil
}

// Insert creates a participant row.
func (r *ParticipantImpl) Insert(ctx context.Context, db bun.IDB, participant *Participant) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(participant).
		Exec(ctx)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

// ListActive returns the active participants of an event, oldest first.
func (r *ParticipantImpl) ListActive(ctx context.Context, db bun.IDB, eventID uuid.UUID) ([]Participant, error) {
	db = r.resolveDB(db)
	var participants []Participant
	err := db.NewSelect().
		Model(&participants).
		Where("event_id = ?", eventID).
		Where("is_active = TRUE").
		Order("joined_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}

// CountActive returns the number of active participants of an event.
func (r *ParticipantImpl) CountActive(ctx context.Context, db bun.IDB, eventID uuid.UUID) (int, error) {
	db = r.resolveDB(db)
	count, err := db.NewSelect().
		Model((*Participant)(nil)).
		Where("event_id = ?", eventID).
		Where("is_active = TRUE").
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

// IncrementPhotosTaken bumps the authoritative photo count and stamps
// last_photo_at.
func (r *ParticipantImpl) IncrementPhotosTaken(ctx context.Context, db bun.IDB, participantID uuid.UUID, takenAt time.Time) error {
	db = r.resolveDB(db)
	result, err := db.NewUpdate().
		Model((*Participant)(nil)).
		Set("photos_taken = photos_taken + 1").
		Set("last_photo_at = ?", takenAt).
		Where("id = ?", participantID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to increment photos taken: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

// SetActive flips a participant's active flag.
func (r *ParticipantImpl) SetActive(ctx context.Context, db bun.IDB, participantID uuid.UUID, active bool) error {
	db = r.resolveDB(db)
	result, err := db.NewUpdate().
		Model((*Participant)(nil)).
		Set("is_active = ?", active).
		Where("id = ?", participantID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update participant active flag: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrParticipantNotFound
	}
	return nil
}
