package photodb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrNotFound is returned when a photo is not found.
var ErrNotFound = errors.New("photo not found")

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new photo repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// Insert stores the metadata of an uploaded photo.
func (r *Impl) Insert(ctx context.Context, db bun.IDB, photo *Photo) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(photo).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert photo: %w", err)
	}
	return nil
}

// GetByID retrieves a photo by its ID.
func (r *Impl) GetByID(ctx context.Context, db bun.IDB, photoID uuid.UUID) (*Photo, error) {
	db = r.resolveDB(db)
	photo := new(Photo)
	err := db.NewSelect().
		Model(photo).
		Where("id = ?", photoID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get photo by ID: %w", err)
	}
	return photo, nil
}

// ListByEvent returns the photos of an event, newest first.
func (r *Impl) ListByEvent(ctx context.Context, db bun.IDB, eventID uuid.UUID) ([]Photo, error) {
	db = r.resolveDB(db)
	var photos []Photo
	err := db.NewSelect().
		Model(&photos).
		Where("event_id = ?", eventID).
		Order("taken_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos by event: %w", err)
	}
	return photos, nil
}

// ListByParticipant returns one participant's photos in an event, newest
// first.
func (r *Impl) ListByParticipant(ctx context.Context, db bun.IDB, eventID, participantID uuid.UUID) ([]Photo, error) {
	db = r.resolveDB(db)
	var photos []Photo
	err := db.NewSelect().
		Model(&photos).
		Where("event_id = ?", eventID).
		Where("participant_id = ?", participantID).
		Order("taken_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos by participant: %w", err)
	}
	return photos, nil
}

// CountByEvent returns the number of photos in an event.
func (r *Impl) CountByEvent(ctx context.Context, db bun.IDB, eventID uuid.UUID) (int, error) {
	db = r.resolveDB(db)
	count, err := db.NewSelect().
		Model((*Photo)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count photos: %w", err)
	}
	return count, nil
}
