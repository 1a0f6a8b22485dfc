// Package worker mirrors stored records into the spreadsheet, driven by
// record events and a periodic full resync.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"scontrini/internal/amqp"
	applog "scontrini/internal/log"
)

// EventSource delivers record events until ctx is done.
type EventSource interface {
	ConsumeRecordEvents(ctx context.Context, handler amqp.Handler) error
}

// Mirrorer applies events and runs the resync loop.
type Mirrorer interface {
	Apply(ctx context.Context, e amqp.RecordEvent) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

const stopTimeout = 10 * time.Second

// SyncWorker handles synchronization of records from the store to the mirror
type SyncWorker struct {
	events EventSource
	mirror Mirrorer
	logger *slog.Logger
}

// NewSyncWorker creates a worker. A nil event source leaves only the
// periodic resync running.
func NewSyncWorker(events EventSource, mirror Mirrorer, logger *slog.Logger) *SyncWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncWorker{
		events: events,
		mirror: mirror,
		logger: logger.With(applog.FieldComponent, applog.ComponentWorker),
	}
}

// HandleRecordEvent processes a single record event from AMQP
func (w *SyncWorker) HandleRecordEvent(ctx context.Context, e amqp.RecordEvent) error {
	w.logger.InfoContext(ctx, "Processing record event",
		"type", e.Type,
		applog.FieldRecordID, e.RecordID,
		applog.FieldRestaurantID, e.RestaurantID)

	if err := w.mirror.Apply(ctx, e); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mirror record event",
			"type", e.Type,
			applog.FieldRecordID, e.RecordID,
			applog.FieldError, err)
		return err
	}
	return nil
}

// Run consumes events and resyncs until ctx is done or the consumer fails.
// Cancellation is not reported as an error.
func (w *SyncWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if w.events != nil {
		g.Go(func() error {
			return w.events.ConsumeRecordEvents(ctx, w.HandleRecordEvent)
		})
	} else {
		w.logger.InfoContext(ctx, "Skipping AMQP message consumption - no event source available")
	}

	g.Go(func() error {
		if err := w.mirror.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		return w.mirror.Stop(stopCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
