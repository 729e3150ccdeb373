package votedb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AwardCategory is the closed set of award categories guests vote in.
type AwardCategory string

const (
	CategoryMostEmotional   AwardCategory = "most_emotional"
	CategorySilliestPicture AwardCategory = "silliest_picture"
	CategoryMostCreative    AwardCategory = "most_creative"
	CategoryBestGroupPhoto  AwardCategory = "best_group_photo"
	CategoryMostRomantic    AwardCategory = "most_romantic"
	CategoryFunniestMoment  AwardCategory = "funniest_moment"
	CategoryBestCandid      AwardCategory = "best_candid"
	CategoryMostArtistic    AwardCategory = "most_artistic"
	CategoryBestDanceMove   AwardCategory = "best_dance_move"
	CategoryMostMemorable   AwardCategory = "most_memorable"
)

// AwardCategories lists every category in presentation order.
var AwardCategories = []AwardCategory{
	CategoryMostEmotional,
	CategorySilliestPicture,
	CategoryMostCreative,
	CategoryBestGroupPhoto,
	CategoryMostRomantic,
	CategoryFunniestMoment,
	CategoryBestCandid,
	CategoryMostArtistic,
	CategoryBestDanceMove,
	CategoryMostMemorable,
}

// ValidCategory reports whether c is a known award category.
func ValidCategory(c AwardCategory) bool {
	for _, known := range AwardCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Vote records one guest's vote for one photo in one category. The unique
// index on (photo_id, voter_participant_id, category) is what enforces
// single voting; the application only translates its violation.
type Vote struct {
	bun.BaseModel `bun:"table:votes,alias:v"`

	ID                 uuid.UUID     `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	EventID            uuid.UUID     `bun:"event_id,notnull,type:uuid"`
	PhotoID            uuid.UUID     `bun:"photo_id,notnull,type:uuid"`
	VoterParticipantID uuid.UUID     `bun:"voter_participant_id,notnull,type:uuid"`
	Category           AwardCategory `bun:"category,notnull"`
	CreatedAt          time.Time     `bun:"created_at,notnull,default:current_timestamp"`
}

// CategoryTally is one photo's vote count within a category.
type CategoryTally struct {
	Category AwardCategory `bun:"category"`
	PhotoID  uuid.UUID     `bun:"photo_id"`
	Count    int           `bun:"count"`
}
