// Package sessionservice manages a device's event sessions: joining events,
// switching between locally known identities, and reconciling the photo
// quota against the authoritative participant directory.
package sessionservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	eventtypes "github.com/about-last-night/aln-backend/app/modules/event/domain"
	sessionstore "github.com/about-last-night/aln-backend/app/modules/session/infrastructure/store"
	"github.com/about-last-night/aln-backend/app/shared/attr"
	"github.com/about-last-night/aln-backend/app/shared/results"
)

// Session-specific failure reasons, alongside the shared taxonomy.
const (
	FailureNoActiveEvent    eventtypes.FailureReason = "no_active_event"
	FailureIdentityMismatch eventtypes.FailureReason = "identity_mismatch"
)

// EventDirectory is the slice of the event module the session module needs.
type EventDirectory interface {
	JoinEvent(ctx context.Context, code string, userName string) (results.OperationResult[eventtypes.SessionInfo, eventtypes.Failure], error)
	GetEventByCode(ctx context.Context, code string) (results.OperationResult[eventtypes.EventInfo, eventtypes.Failure], error)
	GetParticipant(ctx context.Context, participantID uuid.UUID) (results.OperationResult[eventtypes.ParticipantInfo, eventtypes.Failure], error)
}

// Manager owns the device's local session records and the active pointer.
type Manager struct {
	store  sessionstore.Store
	events EventDirectory
	logger *slog.Logger
}

// NewManager creates a session manager.
func NewManager(store sessionstore.Store, events EventDirectory, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, events: events, logger: logger}
}

// Join enrols the given name in the event with the given code, persists the
// resulting session, and repoints the active session at it. Rejoining an
// event the device already knows reuses the server-side membership.
func (m *Manager) Join(ctx context.Context, code string, userName string) (results.OperationResult[sessionstore.Record, eventtypes.Failure], error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	userName = strings.TrimSpace(userName)

	joinResult, err := m.events.JoinEvent(ctx, code, userName)
	if err != nil {
		return results.OperationResult[sessionstore.Record, eventtypes.Failure]{}, fmt.Errorf("joining event: %w", err)
	}
	if joinResult.IsFailure() {
		return results.FailureResult[sessionstore.Record](*joinResult.Failure), nil
	}
	session := *joinResult.Success

	eventResult, err := m.events.GetEventByCode(ctx, code)
	if err != nil {
		return results.OperationResult[sessionstore.Record, eventtypes.Failure]{}, fmt.Errorf("loading event settings: %w", err)
	}
	if eventResult.IsFailure() {
		return results.FailureResult[sessionstore.Record](*eventResult.Failure), nil
	}
	maxPhotos := eventResult.Success.MaxPhotosPerUser

	key := sessionstore.Key{EventCode: session.EventCode, UserName: session.UserName}

	record := &sessionstore.Record{
		Key:             key,
		Session:         session,
		MaxPhotos:       maxPhotos,
		RemainingPhotos: maxPhotos,
		Synced:          false,
	}

	// A session the device already holds keeps its local counter until the
	// next reconcile; the server count is authoritative either way.
	if existing, err := m.store.Get(ctx, key); err == nil {
		record.RemainingPhotos = existing.RemainingPhotos
		record.Synced = existing.Synced
		record.VotedPhotoIDs = existing.VotedPhotoIDs
	}

	if err := m.persist(ctx, key, record); err != nil {
		return results.OperationResult[sessionstore.Record, eventtypes.Failure]{}, err
	}
	if err := m.store.SetActiveKey(ctx, key); err != nil {
		return results.OperationResult[sessionstore.Record, eventtypes.Failure]{}, fmt.Errorf("setting active session: %w", err)
	}

	m.logger.InfoContext(ctx, "Session joined",
		attr.String("event_code", code),
		attr.String("user_name", userName),
	)

	return results.SuccessResult[sessionstore.Record, eventtypes.Failure](*record), nil
}

// ListLocalIdentities returns the user names this device has joined the
// given event under.
func (m *Manager) ListLocalIdentities(ctx context.Context, code string) ([]string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	keys, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	var names []string
	for _, key := range keys {
		if key.EventCode == code {
			names = append(names, key.UserName)
		}
	}
	return names, nil
}

// SwitchActive repoints the active session at an identity the device already
// holds for the given event.
func (m *Manager) SwitchActive(ctx context.Context, code string, userName string) (*sessionstore.Record, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	key := sessionstore.Key{EventCode: code, UserName: strings.TrimSpace(userName)}

	record, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if err := m.store.SetActiveKey(ctx, key); err != nil {
		return nil, fmt.Errorf("setting active session: %w", err)
	}
	return record, nil
}

// GetActive returns the active session record, or sessionstore.ErrNoActive.
func (m *Manager) GetActive(ctx context.Context) (*sessionstore.Record, error) {
	key, err := m.store.ActiveKey(ctx)
	if err != nil {
		return nil, err
	}
	record, err := m.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, sessionstore.ErrNotFound) {
			// Dangling pointer: the record went away underneath it.
			_ = m.store.ClearActive(ctx)
			return nil, sessionstore.ErrNoActive
		}
		return nil, err
	}
	return record, nil
}

// MarkVoted records a vote against the active session's local history. The
// list feeds the exclude set when dealing the next voting candidate, so the
// device never re-presents a photo it already voted on. Marking the same
// photo twice is a no-op.
func (m *Manager) MarkVoted(ctx context.Context, photoID uuid.UUID) error {
	key, err := m.store.ActiveKey(ctx)
	if err != nil {
		return err
	}
	record, err := m.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	for _, id := range record.VotedPhotoIDs {
		if id == photoID {
			return nil
		}
	}
	record.VotedPhotoIDs = append(record.VotedPhotoIDs, photoID)
	return m.persist(ctx, key, record)
}

// Clear drops the active pointer and the active session's voted-photo
// history. Other stored sessions are untouched.
func (m *Manager) Clear(ctx context.Context) error {
	key, err := m.store.ActiveKey(ctx)
	if err != nil {
		if errors.Is(err, sessionstore.ErrNoActive) {
			return nil
		}
		return err
	}

	if record, err := m.store.Get(ctx, key); err == nil {
		record.VotedPhotoIDs = nil
		if err := m.persist(ctx, key, record); err != nil {
			return err
		}
	}

	if err := m.store.ClearActive(ctx); err != nil {
		return fmt.Errorf("clearing active session: %w", err)
	}
	return nil
}

func (m *Manager) persist(ctx context.Context, key sessionstore.Key, record *sessionstore.Record) error {
	record.UpdatedAt = nowUTC()
	if err := m.store.Set(ctx, key, record); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	return nil
}
