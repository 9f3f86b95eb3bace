// Package reaper cancels uploads that were opened and never finished.
//
// A pending version locks its record until it is resolved or cancelled. When
// a client dies mid-upload nothing ever closes that version, so the reaper
// periodically looks for records whose latest version has been pending for
// longer than MaxPendingAge and cancels it with the signature it was opened
// with, exactly as the uploading client would have.
package reaper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/pkg/filestore"
	"github.com/marmos91/dittostore/pkg/metrics"
	"github.com/marmos91/dittostore/pkg/store/filetree"
)

// PendingStore is the part of the file store the reaper works against.
// *filestore.Service implements it.
type PendingStore interface {
	FindStalePending(ctx context.Context, olderThan time.Time, limit int) ([]filestore.StalePending, error)
	CancelPendingVersion(ctx context.Context, recordID, signature string, opts ...filestore.MutationOption) (*filetree.FileVersion, error)
}

// Config contains configuration for the reaper.
type Config struct {
	// Enabled controls whether the background worker runs (default: false)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Interval is how often to scan for stale uploads (default: 1h)
	Interval time.Duration `mapstructure:"interval" validate:"omitempty,gt=0" yaml:"interval"`

	// MaxPendingAge is how long an upload may stay pending (default: 24h)
	MaxPendingAge time.Duration `mapstructure:"max_pending_age" validate:"omitempty,gt=0" yaml:"max_pending_age"`

	// BatchSize caps the uploads cancelled per run (default: 500)
	BatchSize int `mapstructure:"batch_size" validate:"omitempty,gt=0" yaml:"batch_size"`

	// DryRun logs what would be cancelled without cancelling (default: false)
	DryRun bool `mapstructure:"dry_run" yaml:"dry_run"`
}

// Reaper periodically cancels stale pending uploads.
//
// Thread Safety: Safe for concurrent use.
type Reaper struct {
	store   PendingStore
	config  Config
	metrics metrics.ReaperMetrics
	now     func() time.Time
	stopCh  chan struct{}
	doneCh  chan struct{}

	stopOnce sync.Once
}

// New creates a reaper. Call Start to run it in the background.
func New(store PendingStore, config Config, m metrics.ReaperMetrics) *Reaper {
	if config.Interval == 0 {
		config.Interval = time.Hour
	}
	if config.MaxPendingAge == 0 {
		config.MaxPendingAge = 24 * time.Hour
	}
	if config.BatchSize == 0 {
		config.BatchSize = 500
	}
	if m == nil {
		m = metrics.NoopReaperMetrics{}
	}

	return &Reaper{
		store:   store,
		config:  config,
		metrics: m,
		now:     time.Now,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start launches the background worker. No-op when disabled.
func (r *Reaper) Start() {
	if !r.config.Enabled {
		logger.Info("Pending upload reaper disabled")
		return
	}

	logger.Info("Starting pending upload reaper: interval=%s max_pending_age=%s batch_size=%d dry_run=%v",
		r.config.Interval, r.config.MaxPendingAge, r.config.BatchSize, r.config.DryRun)

	go r.worker()
}

// Stop signals the worker and waits for it to finish the current run.
// Calling it more than once is safe.
func (r *Reaper) Stop(ctx context.Context) error {
	if !r.config.Enabled {
		return nil
	}

	r.stopOnce.Do(func() {
		logger.Info("Stopping pending upload reaper...")
		close(r.stopCh)
	})

	select {
	case <-r.doneCh:
		logger.Info("Pending upload reaper stopped")
		return nil
	case <-ctx.Done():
		logger.Warn("Pending upload reaper shutdown timeout")
		return ctx.Err()
	}
}

// RunNow runs one reaping pass and blocks until it completes.
func (r *Reaper) RunNow(ctx context.Context) (*Stats, error) {
	logger.Info("Running pending upload reaper (manual trigger)...")
	return r.reap(ctx)
}

func (r *Reaper) worker() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.config.Interval)
			stats, err := r.reap(ctx)
			cancel()

			if err != nil {
				logger.Error("Pending upload reaper failed: %v", err)
			} else {
				logger.Info("Pending upload reaper completed: %s", stats.Summary())
			}

		case <-r.stopCh:
			return
		}
	}
}

func (r *Reaper) reap(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: r.now()}
	defer func() {
		stats.EndTime = r.now()
		r.metrics.RecordRun(stats.Duration(), stats.Cancelled, stats.Skipped, stats.Failed)
	}()

	cutoff := stats.StartTime.Add(-r.config.MaxPendingAge)
	stale, err := r.store.FindStalePending(ctx, cutoff, r.config.BatchSize)
	if err != nil {
		return stats, fmt.Errorf("failed to list stale uploads: %w", err)
	}
	stats.Found = len(stale)

	if r.config.DryRun {
		for _, p := range stale {
			logger.Info("reaper: DRY RUN - would cancel %s (version %s, pending since %s)",
				p.Path, p.VersionID, p.Created.Format(time.RFC3339))
		}
		return stats, nil
	}

	for _, p := range stale {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		_, err := r.store.CancelPendingVersion(ctx, p.RecordID, p.Signature)
		switch {
		case err == nil:
			stats.Cancelled++
			logger.Debug("reaper: cancelled %s (version %s)", p.Path, p.VersionID)
		case filetree.IsCode(err, filetree.ErrVersionNotPending),
			filetree.IsCode(err, filetree.ErrPendingSignatureMismatch):
			// resolved or replaced by its client since the scan
			stats.Skipped++
		default:
			stats.Failed++
			logger.Warn("reaper: failed to cancel %s: %v", p.Path, err)
		}
	}

	return stats, nil
}

// Stats describes one reaping pass.
type Stats struct {
	StartTime time.Time
	EndTime   time.Time
	Found     int // stale uploads returned by the scan
	Cancelled int
	Skipped   int // already finished when the reaper got to them
	Failed    int
}

// Duration returns the pass duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable summary of the pass.
func (s *Stats) Summary() string {
	return fmt.Sprintf("found=%d cancelled=%d skipped=%d failed=%d duration=%s",
		s.Found, s.Cancelled, s.Skipped, s.Failed, s.Duration())
}
