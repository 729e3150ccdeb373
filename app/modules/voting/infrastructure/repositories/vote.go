package votedb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// ErrDuplicate is returned when a voter votes twice for the same photo and
// category.
var ErrDuplicate = errors.New("duplicate vote")

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return false
}

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new vote repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// Insert records a vote.
func (r *Impl) Insert(ctx context.Context, db bun.IDB, vote *Vote) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(vote).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

// ListVotedPhotoIDs returns the photos a voter has already voted on in an
// event.
func (r *Impl) ListVotedPhotoIDs(ctx context.Context, db bun.IDB, eventID, voterParticipantID uuid.UUID) ([]uuid.UUID, error) {
	db = r.resolveDB(db)
	var ids []uuid.UUID
	err := db.NewSelect().
		Model((*Vote)(nil)).
		Column("photo_id").
		Where("event_id = ?", eventID).
		Where("voter_participant_id = ?", voterParticipantID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list voted photos: %w", err)
	}
	return ids, nil
}

// TallyByCategory returns per-photo vote counts grouped by category.
func (r *Impl) TallyByCategory(ctx context.Context, db bun.IDB, eventID uuid.UUID) ([]CategoryTally, error) {
	db = r.resolveDB(db)
	var tallies []CategoryTally
	err := db.NewSelect().
		Model((*Vote)(nil)).
		Column("category", "photo_id").
		ColumnExpr("COUNT(*) AS count").
		Where("event_id = ?", eventID).
		Group("category", "photo_id").
		Order("category ASC", "count DESC").
		Scan(ctx, &tallies)
	if err != nil {
		return nil, fmt.Errorf("failed to tally votes: %w", err)
	}
	return tallies, nil
}

// CountByEvent returns the total number of votes in an event.
func (r *Impl) CountByEvent(ctx context.Context, db bun.IDB, eventID uuid.UUID) (int, error) {
	db = r.resolveDB(db)
	count, err := db.NewSelect().
		Model((*Vote)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}
