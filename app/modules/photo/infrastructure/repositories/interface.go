package photodb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for photo metadata persistence.
type Repository interface {
	// Insert stores the metadata of an uploaded photo.
	Insert(ctx context.Context, db bun.IDB, photo *Photo) error

	// GetByID retrieves a photo by its ID.
	GetByID(ctx context.Context, db bun.IDB, photoID uuid.UUID) (*Photo, error)

	// ListByEvent returns the photos of an event, newest first.
	ListByEvent(ctx context.Context, db bun.IDB, eventID uuid.UUID) ([]Photo, error)

	// ListByParticipant returns one participant's photos in an event, newest
	// first.
	ListByParticipant(ctx context.Context, db bun.IDB, eventID, participantID uuid.UUID) ([]Photo, error)

	// CountByEvent returns the number of photos in an event.
	CountByEvent(ctx context.Context, db bun.IDB, eventID uuid.UUID) (int, error)
}
