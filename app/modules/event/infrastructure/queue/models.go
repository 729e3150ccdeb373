package eventqueue

import "github.com/google/uuid"

// EventEndJob ends an event when its countdown expires.
type EventEndJob struct {
	EventID uuid.UUID `json:"event_id"`
}

// Kind returns the job type identifier for River.
func (EventEndJob) Kind() string { return "event_end" }
