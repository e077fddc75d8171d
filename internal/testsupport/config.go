package testsupport

import (
	"path/filepath"
	"testing"

	"vellum/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InputDir = filepath.Join(base, "input")
	cfgVal.Paths.ProcessedDir = filepath.Join(base, "processed")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Search.Enabled = false
	// Keep files in place so tests can look entries up by their input path.
	cfgVal.Ingest.MoveProcessed = false
	// Short debounce and backoff keep tests fast without changing semantics.
	cfgVal.Ingest.DebounceWindowMs = 20
	cfgVal.Workflow.BackoffInitialMs = 5
	cfgVal.Workflow.BackoffMaxMs = 20

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithWorkers sets the worker pool size on the test config.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.WorkerPoolSize = n
	}
}

// WithRetryCeilings sets every per-stage retry ceiling to the same value.
func WithRetryCeilings(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.RetryFormatDetection = n
		b.cfg.Workflow.RetryExtraction = n
		b.cfg.Workflow.RetryClassification = n
		b.cfg.Workflow.RetryIndexing = n
	}
}

// WithMoveProcessed toggles relocation of completed files.
func WithMoveProcessed(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ingest.MoveProcessed = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
