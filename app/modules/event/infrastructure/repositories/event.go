package eventdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// ErrNotFound is returned when an event is not found.
var ErrNotFound = errors.New("event not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate row")

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation.
func IsUniqueViolation(err error) bool {
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

// NewRepository creates a new event repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// Create inserts a new event.
func (r *Impl) Create(ctx context.Context, db bun.IDB, event *Event) error {
	db = r.resolveDB(db)
	event.Code = strings.ToUpper(event.Code)
	_, err := db.NewInsert().
		Model(event).
		Exec(ctx)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by its ID.
func (r *Impl) GetByID(ctx context.Context, db bun.IDB, eventID uuid.UUID) (*Event, error) {
	db = r.resolveDB(db)
	event := new(Event)
	err := db.NewSelect().
		Model(event).
		Where("id = ?", eventID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get event by ID: %w", err)
	}
	return event, nil
}

// GetByCode retrieves an event by its join code, case-insensitively.
func (r *Impl) GetByCode(ctx context.Context, db bun.IDB, code string) (*Event, error) {
	db = r.resolveDB(db)
	event := new(Event)
	err := db.NewSelect().
		Model(event).
		Where("code = ?", strings.ToUpper(code)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get event by code: %w", err)
	}
	return event, nil
}

// CodeExists reports whether a join code is already taken.
func (r *Impl) CodeExists(ctx context.Context, db bun.IDB, code string) (bool, error) {
	db = r.resolveDB(db)
	exists, err := db.NewSelect().
		Model((*Event)(nil)).
		Where("code = ?", strings.ToUpper(code)).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check code existence: %w", err)
	}
	return exists, nil
}

// UpdateState transitions the lifecycle fields of an event.
func (r *Impl) UpdateState(ctx context.Context, db bun.IDB, eventID uuid.UUID, state EventState, countdownStart, endedAt *time.Time) error {
	db = r.resolveDB(db)
	q := db.NewUpdate().
		Model((*Event)(nil)).
		Set("state = ?", state).
		Where("id = ?", eventID)
	if countdownStart != nil {
		q = q.Set("countdown_start_time = ?", countdownStart)
	}
	if endedAt != nil {
		q = q.Set("ended_at = ?", endedAt)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update event state: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
