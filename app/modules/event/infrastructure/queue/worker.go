package eventqueue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/about-last-night/aln-backend/app/shared/attr"
)

// Ender is the callback the worker invokes at countdown expiry. It must be
// idempotent: River delivers at-least-once and a creator may already have
// ended the event manually.
type Ender interface {
	EndEventBySystem(ctx context.Context, eventID uuid.UUID) error
}

// EventEndWorker processes scheduled event-end jobs.
type EventEndWorker struct {
	river.WorkerDefaults[EventEndJob]
	logger *slog.Logger
	ender  Ender
}

// NewEventEndWorker creates a worker that ends events via the given Ender.
func NewEventEndWorker(logger *slog.Logger, ender Ender) *EventEndWorker {
	return &EventEndWorker{logger: logger, ender: ender}
}

// Work ends the event named by the job.
func (w *EventEndWorker) Work(ctx context.Context, job *river.Job[EventEndJob]) error {
	w.logger.InfoContext(ctx, "Processing scheduled event end",
		attr.UUID("event_id", job.Args.EventID),
		attr.Int64("job_id", job.ID),
	)

	if err := w.ender.EndEventBySystem(ctx, job.Args.EventID); err != nil {
		w.logger.ErrorContext(ctx, "Scheduled event end failed",
			attr.UUID("event_id", job.Args.EventID),
			attr.Error(err),
		)
		return fmt.Errorf("ending event %s: %w", job.Args.EventID, err)
	}

	return nil
}
