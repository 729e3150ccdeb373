package eventdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// EventState represents the lifecycle state of an event.
type EventState string

// Lifecycle states, strictly forward: not_started -> countdown -> ended.
const (
	EventStateNotStarted EventState = "not_started"
	EventStateCountdown  EventState = "countdown"
	EventStateEnded      EventState = "ended"
)

// EventType classifies the gathering. Unknown values are rejected at the
// boundary rather than stored.
type EventType string

const (
	EventTypeWedding   EventType = "wedding"
	EventTypeFestival  EventType = "festival"
	EventTypeParty     EventType = "party"
	EventTypeCorporate EventType = "corporate"
	EventTypeOther     EventType = "other"
)

// ValidEventType reports whether t is one of the known event types.
func ValidEventType(t EventType) bool {
	switch t {
	case EventTypeWedding, EventTypeFestival, EventTypeParty, EventTypeCorporate, EventTypeOther:
		return true
	}
	return false
}

// Event represents a time-boxed photo-sharing gathering.
type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID                 uuid.UUID  `bun:"id,pk,type:uuid"`
	Code               string     `bun:"code,notnull,unique"`
	Title              string     `bun:"title,notnull"`
	Description        *string    `bun:"description,nullzero"`
	EventType          EventType  `bun:"event_type,notnull,default:'other'"`
	MaxParticipants    int        `bun:"max_participants,notnull"`
	MaxPhotosPerUser   int        `bun:"max_photos_per_user,notnull"`
	DurationMinutes    int        `bun:"duration_minutes,notnull"`
	State              EventState `bun:"state,notnull,default:'not_started'"`
	CountdownStartTime *time.Time `bun:"countdown_start_time,nullzero"`
	EndedAt            *time.Time `bun:"ended_at,nullzero"`
	CreatedBy          string     `bun:"created_by,notnull"`
	CreatedAt          time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Participant is a guest's membership record within one event. PhotosTaken is
// the authoritative photo count for quota reconciliation.
type Participant struct {
	bun.BaseModel `bun:"table:event_participants,alias:p"`

	ID          uuid.UUID  `bun:"id,pk,type:uuid"`
	EventID     uuid.UUID  `bun:"event_id,notnull,type:uuid"`
	UserName    string     `bun:"user_name,notnull"`
	PhotosTaken int        `bun:"photos_taken,notnull,default:0"`
	IsActive    bool       `bun:"is_active,notnull,default:true"`
	JoinedAt    time.Time  `bun:"joined_at,nullzero,notnull,default:current_timestamp"`
	LastPhotoAt *time.Time `bun:"last_photo_at,nullzero"`
}
