package sessionservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	eventtypes "github.com/about-last-night/aln-backend/app/modules/event/domain"
	sessionstore "github.com/about-last-night/aln-backend/app/modules/session/infrastructure/store"
	"github.com/about-last-night/aln-backend/app/shared/attr"
	"github.com/about-last-night/aln-backend/app/shared/results"
)

func nowUTC() time.Time { return time.Now().UTC() }

// PhotoRecord describes a capture the reconciler has admitted against the
// quota. The upload gateway takes it from here.
type PhotoRecord struct {
	ID        uuid.UUID `json:"id"`
	Blob      []byte    `json:"-"`
	Timestamp time.Time `json:"timestamp"`
	FileName  string    `json:"file_name"`
}

// Reconciler keeps the local photo counter in line with the authoritative
// participant directory. The remote count always wins: local captures that
// never reached the server are dropped on resync.
type Reconciler struct {
	store  sessionstore.Store
	events EventDirectory
	logger *slog.Logger
	now    func() time.Time
}

// NewReconciler creates a reconciler over the same store the manager uses.
func NewReconciler(store sessionstore.Store, events EventDirectory, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, events: events, logger: logger, now: nowUTC}
}

// StartOrResume reconciles the active session for the given identity. The
// remaining count is recomputed from the server's photos_taken, clamped at
// zero. If the directory is unreachable the session enters degraded mode:
// the full quota is assumed and the record is flagged unsynced so the next
// successful reconcile corrects it.
func (r *Reconciler) StartOrResume(ctx context.Context, userName string) (results.OperationResult[sessionstore.Record, eventtypes.Failure], error) {
	key, err := r.store.ActiveKey(ctx)
	if err != nil {
		if errors.Is(err, sessionstore.ErrNoActive) {
			return results.FailureResult[sessionstore.Record](eventtypes.Failure{
				Reason:  FailureNoActiveEvent,
				Message: "no active event session",
			}), nil
		}
		return results.OperationResult[sessionstore.Record, eventtypes.Failure]{}, fmt.Errorf("loading active pointer: %w", err)
	}

	if key.UserName != userName {
		return results.FailureResult[sessionstore.Record](eventtypes.Failure{
			Reason:  FailureIdentityMismatch,
			Message: fmt.Sprintf("active session belongs to %q", key.UserName),
		}), nil
	}

	record, err := r.store.Get(ctx, key)
	if err != nil {
		return results.OperationResult[sessionstore.Record, eventtypes.Failure]{}, fmt.Errorf("loading session: %w", err)
	}

	participantResult, err := r.events.GetParticipant(ctx, record.Session.ParticipantID)
	switch {
	case err != nil:
		// Degraded mode: the directory is unreachable. Assume the full quota
		// and flag the record so the next reconcile overwrites it.
		r.logger.WarnContext(ctx, "Participant directory unreachable, entering degraded mode",
			attr.String("event_code", key.EventCode),
			attr.String("user_name", key.UserName),
			attr.Error(err),
		)
		record.RemainingPhotos = record.MaxPhotos
		record.Synced = false

	case participantResult.IsFailure():
		failure := *participantResult.Failure
		if failure.Reason == eventtypes.FailureNotFound {
			// The event or membership no longer resolves server-side; the
			// local session is stale and gets discarded.
			r.logger.WarnContext(ctx, "Discarding session for unresolvable event",
				attr.String("event_code", key.EventCode),
				attr.String("user_name", key.UserName),
			)
			if err := r.store.Delete(ctx, key); err != nil {
				return results.OperationResult[sessionstore.Record, eventtypes.Failure]{}, fmt.Errorf("discarding stale session: %w", err)
			}
		}
		return results.FailureResult[sessionstore.Record](failure), nil

	default:
		taken := participantResult.Success.PhotosTaken
		remaining := record.MaxPhotos - taken
		if remaining < 0 {
			remaining = 0
		}
		record.RemainingPhotos = remaining
		record.Synced = true
	}

	record.UpdatedAt = r.now()
	if err := r.store.Set(ctx, key, record); err != nil {
		return results.OperationResult[sessionstore.Record, eventtypes.Failure]{}, fmt.Errorf("persisting session: %w", err)
	}

	return results.SuccessResult[sessionstore.Record, eventtypes.Failure](*record), nil
}

// Capture admits a photo against the quota. It returns nil with no error
// when the quota is exhausted. The counter is decremented optimistically
// before the upload happens and is never restored on upload failure; only
// the next reconcile against the server can raise it again.
func (r *Reconciler) Capture(ctx context.Context, blob []byte, fileName string) (*PhotoRecord, error) {
	key, err := r.store.ActiveKey(ctx)
	if err != nil {
		return nil, err
	}
	record, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	if record.RemainingPhotos <= 0 {
		return nil, nil
	}

	record.RemainingPhotos--
	record.UpdatedAt = r.now()
	if err := r.store.Set(ctx, key, record); err != nil {
		return nil, fmt.Errorf("persisting decremented counter: %w", err)
	}

	return &PhotoRecord{
		ID:        uuid.New(),
		Blob:      blob,
		Timestamp: r.now(),
		FileName:  fileName,
	}, nil
}

// Reset returns the active session's counter to the full quota and flags it
// unsynced, forcing the next StartOrResume to reconcile from the server.
func (r *Reconciler) Reset(ctx context.Context) error {
	key, err := r.store.ActiveKey(ctx)
	if err != nil {
		return err
	}
	record, err := r.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	record.RemainingPhotos = record.MaxPhotos
	record.Synced = false
	record.UpdatedAt = r.now()
	if err := r.store.Set(ctx, key, record); err != nil {
		return fmt.Errorf("persisting reset session: %w", err)
	}
	return nil
}
