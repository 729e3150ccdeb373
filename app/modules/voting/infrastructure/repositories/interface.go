package votedb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for vote persistence.
type Repository interface {
	// Insert records a vote. A repeat vote by the same voter for the same
	// photo and category fails with ErrDuplicate.
	Insert(ctx context.Context, db bun.IDB, vote *Vote) error

	// ListVotedPhotoIDs returns the photos a voter has already voted on in
	// an event, across all categories.
	ListVotedPhotoIDs(ctx context.Context, db bun.IDB, eventID, voterParticipantID uuid.UUID) ([]uuid.UUID, error)

	// TallyByCategory returns per-photo vote counts grouped by category for
	// an event. Categories with no votes produce no rows.
	TallyByCategory(ctx context.Context, db bun.IDB, eventID uuid.UUID) ([]CategoryTally, error)

	// CountByEvent returns the total number of votes in an event.
	CountByEvent(ctx context.Context, db bun.IDB, eventID uuid.UUID) (int, error)
}
