// Package session wires the device session layer: the file-backed store,
// the manager, and the quota reconciler.
package session

import (
	"fmt"
	"log/slog"

	sessionservice "github.com/about-last-night/aln-backend/app/modules/session/application"
	sessionstore "github.com/about-last-night/aln-backend/app/modules/session/infrastructure/store"
)

// Module bundles the session manager and reconciler over one store.
type Module struct {
	Store      sessionstore.Store
	Manager    *sessionservice.Manager
	Reconciler *sessionservice.Reconciler
}

// NewModule creates the session module over a JSON-file store rooted at dir,
// so sessions survive process restarts.
func NewModule(dir string, events sessionservice.EventDirectory, logger *slog.Logger) (*Module, error) {
	store, err := sessionstore.NewFileStore(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return &Module{
		Store:      store,
		Manager:    sessionservice.NewManager(store, events, logger),
		Reconciler: sessionservice.NewReconciler(store, events, logger),
	}, nil
}
