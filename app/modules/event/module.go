package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"

	"github.com/about-last-night/aln-backend/app/eventbus"
	"github.com/about-last-night/aln-backend/app/metrics"
	eventservice "github.com/about-last-night/aln-backend/app/modules/event/application"
	eventhandlers "github.com/about-last-night/aln-backend/app/modules/event/infrastructure/handlers"
	eventqueue "github.com/about-last-night/aln-backend/app/modules/event/infrastructure/queue"
	eventdb "github.com/about-last-night/aln-backend/app/modules/event/infrastructure/repositories"
	"github.com/about-last-night/aln-backend/config"
	"github.com/about-last-night/aln-backend/pkg/jwt"
)

// Module wires the event service, its auto-end queue, and its HTTP handlers.
type Module struct {
	Service  *eventservice.EventService
	Queue    *eventqueue.Service
	Handlers *eventhandlers.Handlers
	logger   *slog.Logger
}

// NewModule creates the event module. The queue worker calls back into the
// service for auto-end, so the service is built first and the scheduler wired
// after.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	eventDB eventdb.Repository,
	participantDB eventdb.ParticipantRepository,
	bus eventbus.EventBus,
	tokens jwt.Service,
	m metrics.Metrics,
	db *bun.DB,
) (*Module, error) {
	service := eventservice.NewEventService(eventDB, participantDB, bus, tokens, logger, m, db)

	queue, err := eventqueue.NewService(ctx, db, logger, cfg.Postgres.DSN, m, service)
	if err != nil {
		return nil, fmt.Errorf("failed to create event queue: %w", err)
	}
	service.SetEndScheduler(queue)

	return &Module{
		Service:  service,
		Queue:    queue,
		Handlers: eventhandlers.NewHandlers(service, tokens, logger),
		logger:   logger,
	}, nil
}

// Routes mounts the module's HTTP routes.
func (m *Module) Routes(r chi.Router) {
	m.Handlers.Routes(r)
}

// Start begins queue processing.
func (m *Module) Start(ctx context.Context) error {
	return m.Queue.Start(ctx)
}

// HealthCheck reports whether the auto-end queue can reach its backing store.
func (m *Module) HealthCheck(ctx context.Context) error {
	return m.Queue.HealthCheck(ctx)
}

// Close stops queue processing.
func (m *Module) Close(ctx context.Context) error {
	return m.Queue.Stop(ctx)
}
