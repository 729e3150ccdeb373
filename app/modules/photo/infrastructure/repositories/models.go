package photodb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Photo is a stored photo's metadata; the bytes live in the blob store.
type Photo struct {
	bun.BaseModel `bun:"table:photos,alias:p"`

	ID            uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	EventID       uuid.UUID `bun:"event_id,notnull,type:uuid"`
	ParticipantID uuid.UUID `bun:"participant_id,notnull,type:uuid"`
	UserName      string    `bun:"user_name,notnull"`
	URL           string    `bun:"url,notnull"`
	FileName      string    `bun:"file_name,notnull"`
	ContentType   string    `bun:"content_type,notnull"`
	SizeBytes     int64     `bun:"size_bytes,notnull"`
	TakenAt       time.Time `bun:"taken_at,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
