// Package app assembles the modules into the running backend.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/about-last-night/aln-backend/app/eventbus"
	"github.com/about-last-night/aln-backend/app/metrics"
	"github.com/about-last-night/aln-backend/app/modules/event"
	"github.com/about-last-night/aln-backend/app/modules/photo"
	"github.com/about-last-night/aln-backend/app/modules/photo/infrastructure/blobstore"
	"github.com/about-last-night/aln-backend/app/modules/session"
	"github.com/about-last-night/aln-backend/app/modules/voting"
	"github.com/about-last-night/aln-backend/app/shared/attr"
	"github.com/about-last-night/aln-backend/config"
	"github.com/about-last-night/aln-backend/db/bundb"
	"github.com/about-last-night/aln-backend/pkg/jwt"
)

// App owns the shared infrastructure and the three server-side modules.
type App struct {
	Config   *config.Config
	Metrics  *metrics.PrometheusMetrics
	EventBus eventbus.EventBus
	Tokens   jwt.Service

	EventModule   *event.Module
	PhotoModule   *photo.Module
	VotingModule  *voting.Module
	SessionModule *session.Module

	db         *bundb.DBService
	httpServer *http.Server
	logger     *slog.Logger
}

// NewApp wires configuration, database, event bus, and modules.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	dbService, err := bundb.NewBunDBService(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database service: %w", err)
	}

	var bus eventbus.EventBus
	if cfg.NATS.URL != "" {
		bus, err = eventbus.NewNATSEventBus(cfg.NATS.URL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize NATS event bus: %w", err)
		}
		logger.Info("Using NATS event bus", attr.String("url", cfg.NATS.URL))
	} else {
		bus = eventbus.NewInMemoryEventBus(logger)
		logger.Info("Using in-memory event bus")
	}

	promMetrics := metrics.NewPrometheusMetrics()
	tokens := jwt.NewService(cfg.JWT.Secret, cfg.JWT.DefaultTTL)

	blobs, err := blobstore.NewFilesystemStore(cfg.Blob.Dir, cfg.Blob.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob store: %w", err)
	}

	eventModule, err := event.NewModule(ctx, cfg, logger,
		dbService.EventDB, dbService.ParticipantDB, bus, tokens, promMetrics, dbService.GetDB())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event module: %w", err)
	}

	photoModule := photo.NewModule(logger,
		dbService.PhotoDB, dbService.ParticipantDB, blobs, cfg.Blob.Namespace, promMetrics, dbService.GetDB())

	votingModule := voting.NewModule(logger,
		dbService.VoteDB, dbService.PhotoDB, promMetrics)

	// Kiosk deployments run the capture station in-process; its sessions
	// live in a file store beside the blobs.
	sessionModule, err := session.NewModule(cfg.Session.Dir, eventModule.Service, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session module: %w", err)
	}

	a := &App{
		Config:        cfg,
		Metrics:       promMetrics,
		EventBus:      bus,
		Tokens:        tokens,
		EventModule:   eventModule,
		PhotoModule:   photoModule,
		VotingModule:  votingModule,
		SessionModule: sessionModule,
		db:            dbService,
		logger:        logger,
	}

	a.httpServer = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// Run starts the queue and the HTTP server and blocks until the server
// stops.
func (a *App) Run(ctx context.Context) error {
	if err := a.EventModule.Start(ctx); err != nil {
		return fmt.Errorf("failed to start event module: %w", err)
	}

	a.logger.Info("HTTP server listening", attr.String("addr", a.httpServer.Addr))
	if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server, the queue, the bus, and the database, in
// that order.
func (a *App) Shutdown(ctx context.Context) {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("HTTP server shutdown failed", attr.Error(err))
	}
	if err := a.EventModule.Close(ctx); err != nil {
		a.logger.Error("Event module shutdown failed", attr.Error(err))
	}
	a.EventBus.Close()
	if err := a.db.GetDB().Close(); err != nil {
		a.logger.Error("Database close failed", attr.Error(err))
	}
}

// DB returns the database service.
func (a *App) DB() *bundb.DBService {
	return a.db
}
