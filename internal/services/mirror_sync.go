package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"scontrini/internal/amqp"
	"scontrini/internal/core"
	applog "scontrini/internal/log"
	"scontrini/internal/sheets"
	"scontrini/internal/store"
)

// RecordSource reads stored records for the mirror.
type RecordSource interface {
	GetRecordDetail(ctx context.Context, id int64) (core.RecordDetail, error)
	AllRecordDetails(ctx context.Context) ([]core.RecordDetail, error)
}

// MirrorSyncConfig holds configuration for the mirror sync
type MirrorSyncConfig struct {
	// ResyncInterval is how often the whole mirror is reconciled (default: 5m)
	ResyncInterval time.Duration
}

// DefaultMirrorSyncConfig returns sensible defaults
func DefaultMirrorSyncConfig() MirrorSyncConfig {
	return MirrorSyncConfig{
		ResyncInterval: 5 * time.Minute,
	}
}

// ResyncStats summarises one full reconciliation.
type ResyncStats struct {
	Upserted int
	Deleted  int
	Failed   int
}

// MirrorSync keeps the record mirror in line with the store. Events are
// applied one by one as they arrive; a periodic full resync repairs
// anything an event missed.
type MirrorSync struct {
	records RecordSource
	mirror  sheets.Mirror
	config  MirrorSyncConfig
	logger  *slog.Logger

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewMirrorSync creates a new mirror sync
func NewMirrorSync(records RecordSource, mirror sheets.Mirror, config MirrorSyncConfig, logger *slog.Logger) *MirrorSync {
	if config.ResyncInterval <= 0 {
		config.ResyncInterval = DefaultMirrorSyncConfig().ResyncInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorSync{
		records: records,
		mirror:  mirror,
		config:  config,
		logger:  logger.With(applog.FieldComponent, applog.ComponentWorker),
	}
}

// Apply mirrors a single record event. A saved record that no longer
// exists is removed from the mirror.
func (p *MirrorSync) Apply(ctx context.Context, e amqp.RecordEvent) error {
	switch e.Type {
	case amqp.RecordSaved:
		d, err := p.records.GetRecordDetail(ctx, e.RecordID)
		if errors.Is(err, store.ErrNotFound) {
			p.logger.InfoContext(ctx, "Saved record is gone, removing from mirror", applog.FieldRecordID, e.RecordID)
			return p.mirror.DeleteRecord(ctx, e.RecordID)
		}
		if err != nil {
			return err
		}
		if err := p.mirror.UpsertRecord(ctx, d); err != nil {
			return fmt.Errorf("mirror record %d: %w", e.RecordID, err)
		}
	case amqp.RecordDeleted:
		if err := p.mirror.DeleteRecord(ctx, e.RecordID); err != nil {
			return fmt.Errorf("remove mirrored record %d: %w", e.RecordID, err)
		}
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}

	p.logger.DebugContext(ctx, "Record event mirrored",
		"type", e.Type,
		applog.FieldRecordID, e.RecordID)
	return nil
}

// Resync writes every stored record to the mirror and removes mirrored
// records that are no longer stored. Failures on single records are
// counted and do not stop the pass.
func (p *MirrorSync) Resync(ctx context.Context) (ResyncStats, error) {
	var stats ResyncStats

	details, err := p.records.AllRecordDetails(ctx)
	if err != nil {
		return stats, fmt.Errorf("resync: %w", err)
	}
	stored := make(map[int64]struct{}, len(details))
	for _, d := range details {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stored[d.ID] = struct{}{}
		if err := p.mirror.UpsertRecord(ctx, d); err != nil {
			stats.Failed++
			p.logger.ErrorContext(ctx, "Failed to mirror record", applog.FieldRecordID, d.ID, applog.FieldError, err)
			continue
		}
		stats.Upserted++
	}

	mirrored, err := p.mirror.ListRecordIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("resync: list mirrored records: %w", err)
	}
	for _, id := range mirrored {
		if _, ok := stored[id]; ok {
			continue
		}
		if err := p.mirror.DeleteRecord(ctx, id); err != nil {
			stats.Failed++
			p.logger.ErrorContext(ctx, "Failed to remove mirrored record", applog.FieldRecordID, id, applog.FieldError, err)
			continue
		}
		stats.Deleted++
	}

	p.logger.InfoContext(ctx, "Mirror resync completed",
		"upserted", stats.Upserted,
		"deleted", stats.Deleted,
		"failed", stats.Failed)
	return stats, nil
}

// Start begins the resync loop. Returns an error if already running.
func (p *MirrorSync) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("mirror sync is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Mirror sync started", "resync_interval", p.config.ResyncInterval)
	return nil
}

// Stop gracefully stops the loop and waits for completion.
func (p *MirrorSync) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		p.logger.InfoContext(ctx, "Mirror sync stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Mirror sync stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the loop is currently running
func (p *MirrorSync) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *MirrorSync) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.ResyncInterval)
	defer ticker.Stop()

	// Resync immediately on startup
	p.resync(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.resync(ctx)
		}
	}
}

func (p *MirrorSync) resync(ctx context.Context) {
	if _, err := p.Resync(ctx); err != nil && ctx.Err() == nil {
		p.logger.ErrorContext(ctx, "Mirror resync failed", applog.FieldError, err)
	}
}
