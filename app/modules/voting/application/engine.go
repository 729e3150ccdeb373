// Package votingservice runs the award voting: it deals candidate photos to
// voters, enforces the observation gate and single voting, and computes the
// winners per award category.
package votingservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	eventtypes "github.com/about-last-night/aln-backend/app/modules/event/domain"
	"github.com/about-last-night/aln-backend/app/metrics"
	photodb "github.com/about-last-night/aln-backend/app/modules/photo/infrastructure/repositories"
	votedb "github.com/about-last-night/aln-backend/app/modules/voting/infrastructure/repositories"
	"github.com/about-last-night/aln-backend/app/shared/attr"
	"github.com/about-last-night/aln-backend/app/shared/results"
)

// Voting-specific failure reasons, alongside the shared taxonomy.
const (
	FailureNotReady     eventtypes.FailureReason = "not_ready"
	FailureVoteInFlight eventtypes.FailureReason = "vote_in_flight"
	FailureAlreadyVoted eventtypes.FailureReason = "already_voted"
)

// observationGate is how long a voter must look at a candidate before a vote
// for it is accepted.
const observationGate = 3 * time.Second

// presentation records when a candidate was shown to a voter.
type presentation struct {
	photoID     uuid.UUID
	presentedAt time.Time
}

// CastVote is the successful vote response.
type CastVote struct {
	VoteID   uuid.UUID            `json:"vote_id"`
	PhotoID  uuid.UUID            `json:"photo_id"`
	Category votedb.AwardCategory `json:"category"`
}

// CategoryWinners is the result of one award category. Winners holds ALL
// photos tied at the top count.
type CategoryWinners struct {
	Category  votedb.AwardCategory `json:"category"`
	VoteCount int                  `json:"vote_count"`
	Winners   []uuid.UUID          `json:"winners"`
}

// Service is the voting module's application surface.
type Service interface {
	NextCandidate(ctx context.Context, eventID, voterID uuid.UUID, exclude []uuid.UUID) (*photodb.Photo, error)
	Vote(ctx context.Context, eventID, voterID, photoID uuid.UUID, category votedb.AwardCategory) (results.OperationResult[CastVote, eventtypes.Failure], error)
	ComputeWinners(ctx context.Context, eventID uuid.UUID) ([]CategoryWinners, error)
	ExportResults(ctx context.Context, eventID uuid.UUID) ([]byte, error)
	RenderResultsChart(ctx context.Context, eventID uuid.UUID) ([]byte, error)
}

// Engine implements Service.
type Engine struct {
	voteDB  votedb.Repository
	photoDB photodb.Repository
	logger  *slog.Logger
	metrics metrics.Metrics
	now     func() time.Time
	randInt func(n int) int

	mu            sync.Mutex
	presentations map[uuid.UUID]presentation
	inFlight      map[uuid.UUID]bool
}

var _ Service = (*Engine)(nil)

// NewEngine creates the voting engine.
func NewEngine(voteDB votedb.Repository, photoDB photodb.Repository, logger *slog.Logger, m metrics.Metrics) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Engine{
		voteDB:        voteDB,
		photoDB:       photoDB,
		logger:        logger,
		metrics:       m,
		now:           time.Now,
		randInt:       rand.Intn,
		presentations: make(map[uuid.UUID]presentation),
		inFlight:      make(map[uuid.UUID]bool),
	}
}

// NextCandidate deals the voter a photo chosen uniformly at random from the
// event's photos, excluding photos the voter already voted on and the given
// exclude list. It returns nil when the pool is exhausted. Presenting a
// candidate starts that voter's observation gate.
func (e *Engine) NextCandidate(ctx context.Context, eventID, voterID uuid.UUID, exclude []uuid.UUID) (*photodb.Photo, error) {
	e.metrics.RecordOperationAttempt(ctx, "NextCandidate", "VotingEngine")

	photos, err := e.photoDB.ListByEvent(ctx, nil, eventID)
	if err != nil {
		e.metrics.RecordOperationFailure(ctx, "NextCandidate", "VotingEngine")
		return nil, fmt.Errorf("listing event photos: %w", err)
	}

	voted, err := e.voteDB.ListVotedPhotoIDs(ctx, nil, eventID, voterID)
	if err != nil {
		e.metrics.RecordOperationFailure(ctx, "NextCandidate", "VotingEngine")
		return nil, fmt.Errorf("listing voted photos: %w", err)
	}

	excluded := make(map[uuid.UUID]struct{}, len(voted)+len(exclude))
	for _, id := range voted {
		excluded[id] = struct{}{}
	}
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	var pool []photodb.Photo
	for _, photo := range photos {
		if _, skip := excluded[photo.ID]; !skip {
			pool = append(pool, photo)
		}
	}

	e.metrics.RecordOperationSuccess(ctx, "NextCandidate", "VotingEngine")

	if len(pool) == 0 {
		return nil, nil
	}

	candidate := pool[e.randInt(len(pool))]

	e.mu.Lock()
	e.presentations[voterID] = presentation{photoID: candidate.ID, presentedAt: e.now()}
	e.mu.Unlock()

	return &candidate, nil
}

// Vote records the voter's vote for a presented photo. It rejects votes
// before the observation gate elapses, allows at most one in-flight vote per
// voter, and surfaces repeat votes as AlreadyVoted.
func (e *Engine) Vote(ctx context.Context, eventID, voterID, photoID uuid.UUID, category votedb.AwardCategory) (results.OperationResult[CastVote, eventtypes.Failure], error) {
	e.metrics.RecordOperationAttempt(ctx, "Vote", "VotingEngine")
	start := e.now()
	defer func() {
		e.metrics.RecordOperationDuration(ctx, "Vote", "VotingEngine", time.Since(start))
	}()

	if !votedb.ValidCategory(category) {
		return results.FailureResult[CastVote](eventtypes.Failure{
			Reason:  eventtypes.FailureInvalid,
			Message: fmt.Sprintf("unknown award category %q", category),
		}), nil
	}

	if failure := e.admitVote(voterID, photoID); failure != nil {
		return results.FailureResult[CastVote](*failure), nil
	}
	defer e.releaseVote(voterID)

	vote := &votedb.Vote{
		ID:                 uuid.New(),
		EventID:            eventID,
		PhotoID:            photoID,
		VoterParticipantID: voterID,
		Category:           category,
	}

	if err := e.voteDB.Insert(ctx, nil, vote); err != nil {
		if errors.Is(err, votedb.ErrDuplicate) {
			return results.FailureResult[CastVote](eventtypes.Failure{
				Reason:  FailureAlreadyVoted,
				Message: "you already voted for this photo in this category",
			}), nil
		}
		e.metrics.RecordOperationFailure(ctx, "Vote", "VotingEngine")
		return results.OperationResult[CastVote, eventtypes.Failure]{}, fmt.Errorf("inserting vote: %w", err)
	}

	e.metrics.RecordOperationSuccess(ctx, "Vote", "VotingEngine")
	e.logger.InfoContext(ctx, "Vote recorded",
		attr.UUID("event_id", eventID),
		attr.UUID("photo_id", photoID),
		attr.String("category", string(category)),
	)

	return results.SuccessResult[CastVote, eventtypes.Failure](CastVote{
		VoteID:   vote.ID,
		PhotoID:  photoID,
		Category: category,
	}), nil
}

// admitVote checks the observation gate and the in-flight guard under one
// lock. On success the voter is marked in flight and the presentation is
// consumed.
func (e *Engine) admitVote(voterID, photoID uuid.UUID) *eventtypes.Failure {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.inFlight[voterID] {
		return &eventtypes.Failure{
			Reason:  FailureVoteInFlight,
			Message: "a vote is already being submitted",
		}
	}

	p, ok := e.presentations[voterID]
	if !ok || p.photoID != photoID {
		return &eventtypes.Failure{
			Reason:  FailureNotReady,
			Message: "this photo was not presented to you",
		}
	}
	if e.now().Sub(p.presentedAt) < observationGate {
		return &eventtypes.Failure{
			Reason:  FailureNotReady,
			Message: "look at the photo a moment longer before voting",
		}
	}

	delete(e.presentations, voterID)
	e.inFlight[voterID] = true
	return nil
}

func (e *Engine) releaseVote(voterID uuid.UUID) {
	e.mu.Lock()
	delete(e.inFlight, voterID)
	e.mu.Unlock()
}

// ComputeWinners tallies votes per category. All photos tied at the top
// count are co-winners; categories with no votes are omitted.
func (e *Engine) ComputeWinners(ctx context.Context, eventID uuid.UUID) ([]CategoryWinners, error) {
	tallies, err := e.voteDB.TallyByCategory(ctx, nil, eventID)
	if err != nil {
		return nil, fmt.Errorf("tallying votes: %w", err)
	}

	byCategory := make(map[votedb.AwardCategory][]votedb.CategoryTally)
	for _, tally := range tallies {
		byCategory[tally.Category] = append(byCategory[tally.Category], tally)
	}

	var winners []CategoryWinners
	for _, category := range votedb.AwardCategories {
		rows := byCategory[category]
		if len(rows) == 0 {
			continue
		}

		max := 0
		for _, row := range rows {
			if row.Count > max {
				max = row.Count
			}
		}

		result := CategoryWinners{Category: category, VoteCount: max}
		for _, row := range rows {
			if row.Count == max {
				result.Winners = append(result.Winners, row.PhotoID)
			}
		}
		winners = append(winners, result)
	}

	return winners, nil
}
