package votingservice

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	photodb "github.com/about-last-night/aln-backend/app/modules/photo/infrastructure/repositories"
	votedb "github.com/about-last-night/aln-backend/app/modules/voting/infrastructure/repositories"
)

// FakeVoteRepo fakes votedb.Repository. By default Insert collects votes and
// enforces the (photo, voter, category) uniqueness the real table has.
type FakeVoteRepo struct {
	Votes []*votedb.Vote

	InsertFunc            func(ctx context.Context, db bun.IDB, vote *votedb.Vote) error
	ListVotedPhotoIDsFunc func(ctx context.Context, db bun.IDB, eventID, voterParticipantID uuid.UUID) ([]uuid.UUID, error)
	TallyByCategoryFunc   func(ctx context.Context, db bun.IDB, eventID uuid.UUID) ([]votedb.CategoryTally, error)
	CountByEventFunc      func(ctx context.Context, db bun.IDB, eventID uuid.UUID) (int, error)
}

func (f *FakeVoteRepo) Insert(ctx context.Context, db bun.IDB, vote *votedb.Vote) error {
	if f.InsertFunc != nil {
		return f.InsertFunc(ctx, db, vote)
	}
	for _, v := range f.Votes {
		if v.PhotoID == vote.PhotoID && v.VoterParticipantID == vote.VoterParticipantID && v.Category == vote.Category {
			return votedb.ErrDuplicate
		}
	}
	f.Votes = append(f.Votes, vote)
	return nil
}

func (f *FakeVoteRepo) ListVotedPhotoIDs(ctx context.Context, db bun.IDB, eventID, voterParticipantID uuid.UUID) ([]uuid.UUID, error) {
	if f.ListVotedPhotoIDsFunc != nil {
		return f.ListVotedPhotoIDsFunc(ctx, db, eventID, voterParticipantID)
	}
	var ids []uuid.UUID
	for _, v := range f.Votes {
		if v.EventID == eventID && v.VoterParticipantID == voterParticipantID {
			ids = append(ids, v.PhotoID)
		}
	}
	return ids, nil
}

func (f *FakeVoteRepo) TallyByCategory(ctx context.Context, db bun.IDB, eventID uuid.UUID) ([]votedb.CategoryTally, error) {
	if f.TallyByCategoryFunc != nil {
		return f.TallyByCategoryFunc(ctx, db, eventID)
	}
	counts := make(map[votedb.AwardCategory]map[uuid.UUID]int)
	for _, v := range f.Votes {
		if v.EventID != eventID {
			continue
		}
		if counts[v.Category] == nil {
			counts[v.Category] = make(map[uuid.UUID]int)
		}
		counts[v.Category][v.PhotoID]++
	}
	var tallies []votedb.CategoryTally
	for category, perPhoto := range counts {
		for photoID, count := range perPhoto {
			tallies = append(tallies, votedb.CategoryTally{
				Category: category,
				PhotoID:  photoID,
				Count:    count,
			})
		}
	}
	return tallies, nil
}

func (f *FakeVoteRepo) CountByEvent(ctx context.Context, db bun.IDB, eventID uuid.UUID) (int, error) {
	if f.CountByEventFunc != nil {
		return f.CountByEventFunc(ctx, db, eventID)
	}
	count := 0
	for _, v := range f.Votes {
		if v.EventID == eventID {
			count++
		}
	}
	return count, nil
}

var _ votedb.Repository = (*FakeVoteRepo)(nil)

// FakePhotoRepo fakes the photo listing the engine deals candidates from.
type FakePhotoRepo struct {
	Photos []photodb.Photo

	ListByEventFunc func(ctx context.Context, db bun.IDB, eventID uuid.UUID) ([]photodb.Photo, error)
}

func (f *FakePhotoRepo) Insert(ctx context.Context, db bun.IDB, photo *photodb.Photo) error {
	f.Photos = append(f.Photos, *photo)
	return nil
}

func (f *FakePhotoRepo) GetByID(ctx context.Context, db bun.IDB, photoID uuid.UUID) (*photodb.Photo, error) {
	for _, p := range f.Photos {
		if p.ID == photoID {
			photo := p
			return &photo, nil
		}
	}
	return nil, photodb.ErrNotFound
}

func (f *FakePhotoRepo) ListByEvent(ctx context.Context, db bun.IDB, eventID uuid.UUID) ([]photodb.Photo, error) {
	if f.ListByEventFunc != nil {
		return f.ListByEventFunc(ctx, db, eventID)
	}
	var photos []photodb.Photo
	for _, p := range f.Photos {
		if p.EventID == eventID {
			photos = append(photos, p)
		}
	}
	return photos, nil
}

func (f *FakePhotoRepo) ListByParticipant(ctx context.Context, db bun.IDB, eventID, participantID uuid.UUID) ([]photodb.Photo, error) {
	var photos []photodb.Photo
	for _, p := range f.Photos {
		if p.EventID == eventID && p.ParticipantID == participantID {
			photos = append(photos, p)
		}
	}
	return photos, nil
}

func (f *FakePhotoRepo) CountByEvent(ctx context.Context, db bun.IDB, eventID uuid.UUID) (int, error) {
	photos, _ := f.ListByEvent(ctx, db, eventID)
	return len(photos), nil
}

var _ photodb.Repository = (*FakePhotoRepo)(nil)
