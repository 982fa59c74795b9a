// Package worker runs background jobs next to the HTTP API.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/monster-tracker/internal/logging"
	"github.com/monster-tracker/internal/models"
	"github.com/monster-tracker/internal/service"
)

// MinRefreshInterval bounds how often Metamob is walked; a full refresh
// already takes one request per user
const MinRefreshInterval = 10 * time.Minute

// Refresher rewrites the monsters snapshot from Metamob
type Refresher interface {
	RefreshMonsters(ctx context.Context, opts service.RefreshOptions) (*service.RefreshResult, error)
}

// Archiver stores a snapshot file in the archive
type Archiver interface {
	Archive(ctx context.Context, path, label string, takenAt time.Time) (*models.ArchivedSnapshot, error)
}

// RefreshWorkerConfig holds configuration for a refresh worker
type RefreshWorkerConfig struct {
	Refresher  Refresher
	Archiver   Archiver // optional
	Interval   time.Duration
	OnlyArchi  bool
	RunOnStart bool
	Logger     *logging.Logger
}

// RefreshWorkerStatus is a point-in-time view of the worker
type RefreshWorkerStatus struct {
	Running      bool      `json:"running"`
	Interval     string    `json:"interval"`
	Runs         int       `json:"runs"`
	LastRun      time.Time `json:"lastRun,omitempty"`
	LastError    string    `json:"lastError,omitempty"`
	LastArchived string    `json:"lastArchived,omitempty"`
}

// RefreshWorker refreshes the monsters snapshot on a fixed interval and
// archives each new snapshot when an archive is configured
type RefreshWorker struct {
	refresher  Refresher
	archiver   Archiver
	interval   time.Duration
	onlyArchi  bool
	runOnStart bool
	logger     *logging.Logger

	mu           sync.RWMutex
	running      bool
	runs         int
	lastRun      time.Time
	lastErr      error
	lastArchived string
	stopCh       chan struct{}
	doneCh       chan struct{}
}

// NewRefreshWorker creates a new refresh worker
func NewRefreshWorker(cfg *RefreshWorkerConfig) (*RefreshWorker, error) {
	if cfg.Refresher == nil {
		return nil, fmt.Errorf("refresher cannot be nil")
	}
	if cfg.Interval < MinRefreshInterval {
		return nil, fmt.Errorf("refresh interval must be at least %v, got %v", MinRefreshInterval, cfg.Interval)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &RefreshWorker{
		refresher:  cfg.Refresher,
		archiver:   cfg.Archiver,
		interval:   cfg.Interval,
		onlyArchi:  cfg.OnlyArchi,
		runOnStart: cfg.RunOnStart,
		logger:     logger.WithField("worker", "refresh"),
	}, nil
}

// Start begins the refresh loop
func (w *RefreshWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("refresh worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	w.logger.WithField("interval", w.interval.String()).Info("Starting refresh worker")
	go w.pollLoop(ctx, w.stopCh, w.doneCh)
	return nil
}

// Stop signals the loop and waits for the current run to finish. When ctx
// ends first the loop still exits once the running refresh returns.
func (w *RefreshWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("refresh worker is not running")
	}
	stopCh, doneCh := w.stopCh, w.doneCh
	// the loop is signalled exactly once; a timed-out Stop leaves it draining
	w.running = false
	w.stopCh = nil
	w.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		w.logger.Info("Refresh worker stopped")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Refresh worker stop timed out")
		return ctx.Err()
	}
}

func (w *RefreshWorker) pollLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// runs stop when either the loop context or Stop fires
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-runCtx.Done():
		}
	}()

	if w.runOnStart {
		w.runLogged(runCtx)
	}

	for {
		select {
		case <-runCtx.Done():
			return
		case <-ticker.C:
			w.runLogged(runCtx)
		}
	}
}

func (w *RefreshWorker) runLogged(ctx context.Context) {
	if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
		w.logger.WithError(err).Error("Scheduled refresh failed")
	}
}

// RunOnce refreshes the snapshot and archives it. The archived snapshot is
// nil when no archive is configured.
func (w *RefreshWorker) RunOnce(ctx context.Context) (*models.ArchivedSnapshot, error) {
	started := time.Now()
	archived, err := w.run(ctx)

	w.mu.Lock()
	w.runs++
	w.lastRun = started
	w.lastErr = err
	if archived != nil {
		w.lastArchived = archived.ID.String()
	}
	w.mu.Unlock()

	return archived, err
}

func (w *RefreshWorker) run(ctx context.Context) (*models.ArchivedSnapshot, error) {
	result, err := w.refresher.RefreshMonsters(ctx, service.RefreshOptions{OnlyArchi: w.onlyArchi})
	if err != nil {
		return nil, fmt.Errorf("refresh monsters: %w", err)
	}

	w.logger.WithFields(map[string]interface{}{
		"path":    result.Path,
		"users":   result.Users,
		"fetched": result.Fetched,
		"cached":  result.Cached,
		"failed":  len(result.Failed),
	}).Info("Scheduled refresh completed")

	if w.archiver == nil {
		return nil, nil
	}
	archived, err := w.archiver.Archive(ctx, result.Path, "scheduled", time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("archive snapshot: %w", err)
	}
	return archived, nil
}

// GetStatus returns the worker status
func (w *RefreshWorker) GetStatus() *RefreshWorkerStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	status := &RefreshWorkerStatus{
		Running:      w.running,
		Interval:     w.interval.String(),
		Runs:         w.runs,
		LastRun:      w.lastRun,
		LastArchived: w.lastArchived,
	}
	if w.lastErr != nil {
		status.LastError = w.lastErr.Error()
	}
	return status
}
