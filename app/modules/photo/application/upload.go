// Package photoservice accepts photo uploads, stores the bytes in the blob
// store, and records metadata against the participant's quota.
package photoservice

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	eventtypes "github.com/about-last-night/aln-backend/app/modules/event/domain"
	eventdb "github.com/about-last-night/aln-backend/app/modules/event/infrastructure/repositories"
	"github.com/about-last-night/aln-backend/app/metrics"
	"github.com/about-last-night/aln-backend/app/modules/photo/infrastructure/blobstore"
	photodb "github.com/about-last-night/aln-backend/app/modules/photo/infrastructure/repositories"
	"github.com/about-last-night/aln-backend/app/shared/attr"
	"github.com/about-last-night/aln-backend/app/shared/results"
)

// Photo-specific failure reasons, alongside the shared taxonomy.
const (
	FailureMissingFields       eventtypes.FailureReason = "missing_fields"
	FailurePayloadTooLarge     eventtypes.FailureReason = "payload_too_large"
	FailureServerMisconfigured eventtypes.FailureReason = "server_misconfigured"
	FailureUploadFailed        eventtypes.FailureReason = "upload_failed"
)

const (
	// maxUploadBytes caps a single photo upload.
	maxUploadBytes = 5 * 1024 * 1024

	// Transient blob-store failures are retried a fixed number of times
	// with a fixed delay; validation failures are never retried.
	maxUploadAttempts = 3
	retryDelay        = 500 * time.Millisecond
)

// UploadInput is a single photo upload.
type UploadInput struct {
	EventID       uuid.UUID
	ParticipantID uuid.UUID
	UserName      string
	FileName      string
	ContentType   string
	Data          []byte
	TakenAt       time.Time
}

// UploadedPhoto is the successful upload response.
type UploadedPhoto struct {
	ID       uuid.UUID `json:"id"`
	URL      string    `json:"url"`
	FileName string    `json:"file_name"`
	TakenAt  time.Time `json:"taken_at"`
}

// Service is the photo module's application surface.
type Service interface {
	Upload(ctx context.Context, input UploadInput) (results.OperationResult[UploadedPhoto, eventtypes.Failure], error)
	ListPhotos(ctx context.Context, eventID uuid.UUID, participantID *uuid.UUID) ([]photodb.Photo, error)
}

// PhotoService implements Service.
type PhotoService struct {
	photoDB       photodb.Repository
	participantDB eventdb.ParticipantRepository
	blobs         blobstore.Store
	namespace     string
	logger        *slog.Logger
	metrics       metrics.Metrics
	db            *bun.DB
	now           func() time.Time
	retryDelay    time.Duration
}

var _ Service = (*PhotoService)(nil)

// NewPhotoService creates the photo service. A nil blob store is tolerated
// at construction and surfaces as server_misconfigured on upload.
func NewPhotoService(
	photoDB photodb.Repository,
	participantDB eventdb.ParticipantRepository,
	blobs blobstore.Store,
	namespace string,
	logger *slog.Logger,
	m metrics.Metrics,
	db *bun.DB,
) *PhotoService {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewNoop()
	}
	return &PhotoService{
		photoDB:       photoDB,
		participantDB: participantDB,
		blobs:         blobs,
		namespace:     namespace,
		logger:        logger,
		metrics:       m,
		db:            db,
		now:           time.Now,
		retryDelay:    retryDelay,
	}
}

func (s *PhotoService) validate(input UploadInput) *eventtypes.Failure {
	switch {
	case input.EventID == uuid.Nil,
		input.ParticipantID == uuid.Nil,
		strings.TrimSpace(input.UserName) == "",
		strings.TrimSpace(input.FileName) == "",
		len(input.Data) == 0:
		return &eventtypes.Failure{
			Reason:  FailureMissingFields,
			Message: "event, participant, user name, file name, and photo data are all required",
		}
	case len(input.Data) > maxUploadBytes:
		return &eventtypes.Failure{
			Reason:  FailurePayloadTooLarge,
			Message: fmt.Sprintf("photo exceeds the %d byte limit", maxUploadBytes),
		}
	}
	return nil
}

// Upload validates the capture, stores the blob with bounded retries, then
// records the metadata row and bumps the participant's authoritative count.
func (s *PhotoService) Upload(ctx context.Context, input UploadInput) (results.OperationResult[UploadedPhoto, eventtypes.Failure], error) {
	s.metrics.RecordOperationAttempt(ctx, "Upload", "PhotoService")
	start := s.now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, "Upload", "PhotoService", time.Since(start))
	}()

	if failure := s.validate(input); failure != nil {
		return results.FailureResult[UploadedPhoto](*failure), nil
	}

	if s.blobs == nil {
		s.logger.ErrorContext(ctx, "Blob store not configured, rejecting upload")
		return results.FailureResult[UploadedPhoto](eventtypes.Failure{
			Reason:  FailureServerMisconfigured,
			Message: "photo storage is not configured",
		}), nil
	}

	takenAt := input.TakenAt
	if takenAt.IsZero() {
		takenAt = s.now().UTC()
	}

	path := blobstore.ObjectPath(
		s.namespace,
		input.UserName,
		strconv.FormatInt(takenAt.UnixMilli(), 10),
		input.FileName,
	)

	url, err := s.putWithRetry(ctx, path, input.ContentType, input.Data)
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "Upload", "PhotoService")
		s.logger.ErrorContext(ctx, "Blob upload exhausted retries",
			attr.String("path", path),
			attr.Error(err),
		)
		return results.FailureResult[UploadedPhoto](eventtypes.Failure{
			Reason:  FailureUploadFailed,
			Message: "photo storage is temporarily unavailable",
		}), nil
	}

	photo := &photodb.Photo{
		ID:            uuid.New(),
		EventID:       input.EventID,
		ParticipantID: input.ParticipantID,
		UserName:      input.UserName,
		URL:           url,
		FileName:      input.FileName,
		ContentType:   input.ContentType,
		SizeBytes:     int64(len(input.Data)),
		TakenAt:       takenAt,
	}

	err = s.runInTx(ctx, func(ctx context.Context, db bun.IDB) error {
		if err := s.photoDB.Insert(ctx, db, photo); err != nil {
			return err
		}
		return s.participantDB.IncrementPhotosTaken(ctx, db, input.ParticipantID, takenAt)
	})
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "Upload", "PhotoService")
		return results.OperationResult[UploadedPhoto, eventtypes.Failure]{}, fmt.Errorf("recording upload: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "Upload", "PhotoService")
	s.logger.InfoContext(ctx, "Photo uploaded",
		attr.UUID("photo_id", photo.ID),
		attr.UUID("event_id", input.EventID),
		attr.String("user_name", input.UserName),
		attr.Int64("size_bytes", photo.SizeBytes),
	)

	return results.SuccessResult[UploadedPhoto, eventtypes.Failure](UploadedPhoto{
		ID:       photo.ID,
		URL:      url,
		FileName: photo.FileName,
		TakenAt:  takenAt,
	}), nil
}

// putWithRetry attempts the blob write up to maxUploadAttempts times with a
// fixed delay between attempts.
func (s *PhotoService) putWithRetry(ctx context.Context, path, contentType string, data []byte) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxUploadAttempts; attempt++ {
		url, err := s.blobs.Put(ctx, path, contentType, data)
		if err == nil {
			return url, nil
		}
		lastErr = err

		s.logger.WarnContext(ctx, "Blob upload attempt failed",
			attr.String("path", path),
			attr.Int("attempt", attempt),
			attr.Error(err),
		)

		if attempt < maxUploadAttempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}
	}
	return "", fmt.Errorf("blob upload failed after %d attempts: %w", maxUploadAttempts, lastErr)
}

// ListPhotos returns an event's photos, optionally filtered to one
// participant.
func (s *PhotoService) ListPhotos(ctx context.Context, eventID uuid.UUID, participantID *uuid.UUID) ([]photodb.Photo, error) {
	if participantID != nil {
		return s.photoDB.ListByParticipant(ctx, nil, eventID, *participantID)
	}
	return s.photoDB.ListByEvent(ctx, nil, eventID)
}

func (s *PhotoService) runInTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}
