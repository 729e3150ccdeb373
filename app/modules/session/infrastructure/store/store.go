// Package sessionstore persists per-device event sessions. A device can hold
// one session per (event code, user name) pair plus a single active pointer
// naming the session currently in use.
package sessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	eventtypes "github.com/about-last-night/aln-backend/app/modules/event/domain"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrNoActive = errors.New("no active session")
)

// Key identifies a stored session.
type Key struct {
	EventCode string `json:"event_code"`
	UserName  string `json:"user_name"`
}

// Record is the persisted session state for one identity in one event.
type Record struct {
	Key             Key                    `json:"key"`
	Session         eventtypes.SessionInfo `json:"session"`
	MaxPhotos       int                    `json:"max_photos"`
	RemainingPhotos int                    `json:"remaining_photos"`
	Synced          bool                   `json:"synced"`
	VotedPhotoIDs   []uuid.UUID            `json:"voted_photo_ids,omitempty"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// Store is the session persistence contract. Implementations must be safe
// for concurrent use.
type Store interface {
	// Get retrieves a session record, or ErrNotFound.
	Get(ctx context.Context, key Key) (*Record, error)

	// Set upserts a session record.
	Set(ctx context.Context, key Key, record *Record) error

	// Delete removes a session record, clearing the active pointer if it
	// named this record. Deleting a missing record is a no-op.
	Delete(ctx context.Context, key Key) error

	// List returns the keys of all stored sessions.
	List(ctx context.Context) ([]Key, error)

	// ActiveKey returns the key of the active session, or ErrNoActive.
	ActiveKey(ctx context.Context) (Key, error)

	// SetActiveKey repoints the active session.
	SetActiveKey(ctx context.Context, key Key) error

	// ClearActive drops the active pointer without touching records.
	ClearActive(ctx context.Context) error
}
