package eventqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/uptrace/bun"

	"github.com/about-last-night/aln-backend/app/metrics"
	"github.com/about-last-night/aln-backend/app/shared/attr"
)

// QueueService defines the contract for event job scheduling.
type QueueService interface {
	// ScheduleEventEnd schedules the automatic end of an event.
	ScheduleEventEnd(ctx context.Context, eventID uuid.UUID, at time.Time) error
	// CancelEventJobs cancels pending scheduled jobs for an event.
	CancelEventJobs(ctx context.Context, eventID uuid.UUID) error
	// HealthCheck verifies the queue service is healthy.
	HealthCheck(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Service schedules event lifecycle jobs with River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	db      *bun.DB
	logger  *slog.Logger
	metrics metrics.Metrics
}

// NewService creates a River-based queue service. River needs its own pgx
// pool; the bun DB is only used for job introspection queries.
func NewService(ctx context.Context, bunDB *bun.DB, logger *slog.Logger, dsn string, m metrics.Metrics, ender Ender) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("component", "river_queue"),
	)

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewEventEndWorker(ctxLogger, ender))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			"event":            {MaxWorkers: 5},
		},
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	ctxLogger.Info("Event queue service initialized")

	return &Service{
		client:  riverClient,
		pool:    pool,
		db:      bunDB,
		logger:  ctxLogger,
		metrics: m,
	}, nil
}

// Start starts job processing.
func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.logger.Info("Event queue service started")
	return nil
}

// Stop drains and stops job processing, then closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.pool.Close()
	s.logger.Info("Event queue service stopped")
	return nil
}

// ScheduleEventEnd schedules the automatic end of an event at the countdown
// deadline. ByArgs uniqueness keeps a restarted event from double-scheduling.
func (s *Service) ScheduleEventEnd(ctx context.Context, eventID uuid.UUID, at time.Time) error {
	s.metrics.RecordOperationAttempt(ctx, "schedule_event_end", "river")
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, "schedule_event_end", "river", time.Since(start))
	}()

	jobResult, err := s.client.Insert(ctx, EventEndJob{EventID: eventID}, &river.InsertOpts{
		Queue:       "event",
		ScheduledAt: at,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "schedule_event_end", "river")
		return fmt.Errorf("failed to schedule event end job: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "schedule_event_end", "river")
	s.logger.InfoContext(ctx, "Event end job scheduled",
		attr.UUID("event_id", eventID),
		attr.Time("scheduled_at", at),
		attr.Int64("job_id", jobResult.Job.ID),
	)
	return nil
}

// CancelEventJobs cancels pending jobs for an event, for example when the
// creator ends it manually before the countdown expires.
func (s *Service) CancelEventJobs(ctx context.Context, eventID uuid.UUID) error {
	type riverJobRow struct {
		ID   int64  `bun:"id"`
		Kind string `bun:"kind"`
	}

	var jobs []riverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "kind").
		Where("kind = ?", EventEndJob{}.Kind()).
		Where("state IN (?, ?)", "available", "scheduled").
		Where("args->>'event_id' = ?", eventID.String()).
		Scan(ctx, &jobs)
	if err != nil {
		return fmt.Errorf("failed to query jobs for cancellation: %w", err)
	}

	for _, job := range jobs {
		if _, err := s.client.JobCancel(ctx, job.ID); err != nil {
			s.logger.WarnContext(ctx, "Failed to cancel job",
				attr.Int64("job_id", job.ID),
				attr.Error(err),
			)
		}
	}

	s.logger.InfoContext(ctx, "Cancelled scheduled event jobs",
		attr.UUID("event_id", eventID),
		attr.Int("count", len(jobs)),
	)
	return nil
}

// HealthCheck verifies queue connectivity.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("river client is nil")
	}

	var count int
	err := s.db.NewSelect().
		Table("river_job").
		ColumnExpr("COUNT(*)").
		Scan(ctx, &count)
	if err != nil {
		return fmt.Errorf("queue health check failed: %w", err)
	}
	return nil
}
