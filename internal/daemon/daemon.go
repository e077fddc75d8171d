package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"vellum/internal/config"
	"vellum/internal/deps"
	"vellum/internal/ingest"
	"vellum/internal/ledger"
	"vellum/internal/logging"
	"vellum/internal/stage"
	"vellum/internal/workflow"
)

// Daemon coordinates the background pipeline and enforces single-instance
// execution. Exactly one daemon may hold the lock file at a time; this is
// what makes clearing stale leases at startup safe.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *ledger.Store
	manager *workflow.Manager
	source  ingest.Source

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
	runErr  atomic.Pointer[error]
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	LedgerPath   string
	LockFilePath string
	Pipeline     workflow.Status
	StageHealth  []stage.Health
	Dependencies []deps.Status
	LastError    error
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *ledger.Store, manager *workflow.Manager, source ingest.Source, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || manager == nil || source == nil {
		return nil, errors.New("daemon requires config, store, manager, and source")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "vellumd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		manager:  manager,
		source:   source,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock and launches the workflow manager in the
// background. It returns once the pipeline is running.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another vellum daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})

	if d.api != nil {
		if err := d.api.start(runCtx); err != nil {
			cancel()
			_ = d.lock.Unlock()
			return err
		}
	}

	go func() {
		defer close(d.done)
		if err := d.manager.Run(runCtx, d.source); err != nil {
			d.runErr.Store(&err)
			d.logger.Error("workflow manager exited", logging.Error(err))
		}
	}()

	d.running.Store(true)
	d.logger.Info("vellum daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("pid", os.Getpid()),
	)
	return nil
}

// Wait blocks until the workflow manager has exited and returns its error.
func (d *Daemon) Wait() error {
	if d.done == nil {
		return nil
	}
	<-d.done
	if errp := d.runErr.Load(); errp != nil {
		return *errp
	}
	return nil
}

// Stop cancels background processing, waits for workers to drain, and
// releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.done != nil {
		<-d.done
	}
	if d.api != nil {
		d.api.stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("vellum daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	pipeline, err := d.manager.Status(ctx)
	if err != nil {
		d.logger.Warn("failed to collect pipeline status", logging.Error(err))
	}
	lastErr := d.manager.LastError()
	if errp := d.runErr.Load(); errp != nil {
		lastErr = *errp
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LedgerPath:   d.store.Path(),
		LockFilePath: d.lockPath,
		Pipeline:     pipeline,
		StageHealth:  d.manager.HealthChecks(ctx),
		Dependencies: deps.CheckBinaries(deps.Requirements(d.cfg)),
		LastError:    lastErr,
	}
}
