// Package eventtypes holds the event module's API-facing types and the pure
// lifecycle arithmetic shared by server and clients.
package eventtypes

import (
	"time"

	"github.com/google/uuid"

	eventdb "github.com/about-last-night/aln-backend/app/modules/event/infrastructure/repositories"
)

// EventInfo is the API-facing projection of an event.
type EventInfo struct {
	ID                 uuid.UUID          `json:"id"`
	Code               string             `json:"code"`
	Title              string             `json:"title"`
	Description        *string            `json:"description,omitempty"`
	EventType          eventdb.EventType  `json:"event_type"`
	MaxParticipants    int                `json:"max_participants"`
	MaxPhotosPerUser   int                `json:"max_photos_per_user"`
	DurationMinutes    int                `json:"duration_minutes"`
	State              eventdb.EventState `json:"state"`
	CountdownStartTime *time.Time         `json:"countdown_start_time,omitempty"`
	EndedAt            *time.Time         `json:"ended_at,omitempty"`
	CreatedBy          string             `json:"created_by"`
	CreatedAt          time.Time          `json:"created_at"`
}

// ParticipantInfo is the API-facing projection of a participant.
type ParticipantInfo struct {
	ID          uuid.UUID  `json:"id"`
	EventID     uuid.UUID  `json:"event_id"`
	UserName    string     `json:"user_name"`
	PhotosTaken int        `json:"photos_taken"`
	IsActive    bool       `json:"is_active"`
	JoinedAt    time.Time  `json:"joined_at"`
	LastPhotoAt *time.Time `json:"last_photo_at,omitempty"`
}

// SessionInfo identifies a guest's membership in an event; this is what a
// device persists as its local session.
type SessionInfo struct {
	EventID       uuid.UUID `json:"event_id"`
	EventCode     string    `json:"event_code"`
	EventTitle    string    `json:"event_title"`
	ParticipantID uuid.UUID `json:"participant_id"`
	UserName      string    `json:"user_name"`
}

// FailureReason classifies domain failures for the error taxonomy.
type FailureReason string

const (
	FailureNotFound  FailureReason = "not_found"
	FailureCapacity  FailureReason = "capacity"
	FailureForbidden FailureReason = "forbidden"
	FailureConflict  FailureReason = "conflict"
	FailureInvalid   FailureReason = "invalid"
)

// Failure is a surfaced domain failure.
type Failure struct {
	Reason  FailureReason `json:"reason"`
	Message string        `json:"message"`
}

// StateChangedPayload travels on the event state-change topic. Delivery is
// at-least-once; consumers gate on OldState != NewState.
type StateChangedPayload struct {
	EventID            uuid.UUID          `json:"event_id"`
	OldState           eventdb.EventState `json:"old_state"`
	NewState           eventdb.EventState `json:"new_state"`
	CountdownStartTime *time.Time         `json:"countdown_start_time,omitempty"`
	DurationMinutes    int                `json:"duration_minutes"`
}

// StateChangedTopic returns the per-event pub/sub topic for state changes.
func StateChangedTopic(eventID uuid.UUID) string {
	return "event.state.changed." + eventID.String()
}

// TimeRemaining computes the remaining countdown for an event at the given
// instant. Events without a countdown start have no remaining time.
func TimeRemaining(countdownStart *time.Time, durationMinutes int, now time.Time) time.Duration {
	if countdownStart == nil {
		return 0
	}
	deadline := countdownStart.Add(time.Duration(durationMinutes) * time.Minute)
	remaining := deadline.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
