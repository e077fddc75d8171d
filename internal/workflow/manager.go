package workflow

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"vellum/internal/config"
	"vellum/internal/ledger"
	"vellum/internal/logging"
	"vellum/internal/stage"
)

// Manager drives entries through the pipeline using a bounded worker pool.
// Each worker holds the entry's lease for the duration of a processing pass;
// transient failures release the lease and schedule a delayed requeue instead
// of blocking the worker.
type Manager struct {
	cfg      *config.Config
	store    *ledger.Store
	logger   *slog.Logger
	handlers map[ledger.Stage]stage.Handler
	instance string

	gatewayTimeout time.Duration
	backoffInitial time.Duration
	backoffMax     time.Duration

	requeue chan string
	wake    chan struct{}

	// pending counts dispatched entries plus scheduled retries. Run drains
	// a finite source only once it reaches zero with no events left.
	pending atomic.Int64

	mu      sync.Mutex
	lastErr error
}

// NewManager constructs a workflow manager over the given store and gateways.
func NewManager(cfg *config.Config, store *ledger.Store, gw Gateways, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:            cfg,
		store:          store,
		logger:         logger.With(logging.String(logging.FieldComponent, "workflow")),
		handlers:       stageHandlers(cfg, gw),
		instance:       fmt.Sprintf("vellumd-%s", uuid.NewString()[:8]),
		gatewayTimeout: time.Duration(cfg.Workflow.GatewayTimeoutMs) * time.Millisecond,
		backoffInitial: time.Duration(cfg.Workflow.BackoffInitialMs) * time.Millisecond,
		backoffMax:     time.Duration(cfg.Workflow.BackoffMaxMs) * time.Millisecond,
		requeue:        make(chan string, 64),
		wake:           make(chan struct{}, 1),
	}
}

// Store exposes the underlying ledger store for status surfaces.
func (m *Manager) Store() *ledger.Store {
	return m.store
}

// retryCeiling returns the total attempts allowed for a stage before an
// entry fails with retries exhausted.
func (m *Manager) retryCeiling(s ledger.Stage) int {
	var ceiling int
	switch s {
	case ledger.StageFormatDetection:
		ceiling = m.cfg.Workflow.RetryFormatDetection
	case ledger.StageExtraction:
		ceiling = m.cfg.Workflow.RetryExtraction
	case ledger.StageClassification:
		ceiling = m.cfg.Workflow.RetryClassification
	case ledger.StageIndexing:
		ceiling = m.cfg.Workflow.RetryIndexing
	}
	if ceiling < 1 {
		ceiling = 1
	}
	return ceiling
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

// LastError returns the most recent internal processing error, if any.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) notifyIdle() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}
