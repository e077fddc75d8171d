package workflow_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vellum/internal/config"
	"vellum/internal/ingest"
	"vellum/internal/ledger"
	"vellum/internal/services"
	"vellum/internal/services/classify"
	"vellum/internal/services/detect"
	"vellum/internal/services/extract"
	"vellum/internal/services/search"
	"vellum/internal/testsupport"
	"vellum/internal/workflow"
)

type stubDetector struct {
	calls  atomic.Int32
	result detect.Result
	err    error
}

func (s *stubDetector) Detect(ctx context.Context, path string) (detect.Result, error) {
	s.calls.Add(1)
	if s.err != nil {
		return detect.Result{}, s.err
	}
	return s.result, nil
}

type stubExtractor struct {
	calls    atomic.Int32
	lastType atomic.Value
	result   extract.Result
	err      error
}

func (s *stubExtractor) Extract(ctx context.Context, path string, docType ledger.DocumentType) (extract.Result, error) {
	s.calls.Add(1)
	s.lastType.Store(docType)
	if s.err != nil {
		return extract.Result{}, s.err
	}
	return s.result, nil
}

type stubClassifier struct {
	calls  atomic.Int32
	result classify.Result
	err    error
	panics bool
}

func (s *stubClassifier) Classify(ctx context.Context, text string) (classify.Result, error) {
	s.calls.Add(1)
	if s.panics {
		panic("classifier blew up")
	}
	if s.err != nil {
		return classify.Result{}, s.err
	}
	return s.result, nil
}

type stubIndexer struct {
	calls atomic.Int32
	// failUntil makes the first N calls fail with a transient error.
	failUntil int32
	err       error
	ref       string
}

func (s *stubIndexer) Index(ctx context.Context, doc search.Document) (string, error) {
	n := s.calls.Add(1)
	if s.err != nil && (s.failUntil == 0 || n <= s.failUntil) {
		return "", s.err
	}
	if s.ref != "" {
		return s.ref, nil
	}
	return "idx-" + doc.EntryID, nil
}

func (s *stubIndexer) Ping(ctx context.Context) error {
	return nil
}

type stubs struct {
	detector   *stubDetector
	extractor  *stubExtractor
	classifier *stubClassifier
	indexer    *stubIndexer
}

func happyStubs() *stubs {
	return &stubs{
		detector: &stubDetector{result: detect.Result{
			Type:       ledger.DocMachineReadable,
			Confidence: 0.92,
			PageCount:  3,
		}},
		extractor:  &stubExtractor{result: extract.Result{Text: "invoice total due", PageCount: 3}},
		classifier: &stubClassifier{result: classify.Result{Category: "invoice", Confidence: 0.8}},
		indexer:    &stubIndexer{},
	}
}

func (s *stubs) gateways() workflow.Gateways {
	return workflow.Gateways{
		Detector:   s.detector,
		Extractor:  s.extractor,
		Classifier: s.classifier,
		Indexer:    s.indexer,
	}
}

func newTestManager(t *testing.T, cfg *config.Config, s *stubs) (*workflow.Manager, *ledger.Store) {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	return workflow.NewManager(cfg, store, s.gateways(), nil), store
}

// runBatch drives the manager over a finite batch source and returns once it
// drains.
func runBatch(t *testing.T, m *workflow.Manager, paths []string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := m.Run(ctx, ingest.NewBatch(paths, true, nil))
	require.NoError(t, err)
	require.NoError(t, ctx.Err(), "batch run did not drain before timeout")
}

func TestRunBatchCompletesEntry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := happyStubs()
	m, store := newTestManager(t, cfg, s)

	path := filepath.Join(cfg.Paths.InputDir, "report.pdf")
	testsupport.WritePDF(t, path, 512)
	runBatch(t, m, []string{path})

	entry, err := store.GetByPath(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, ledger.StageCompleted, entry.Stage)
	require.Equal(t, ledger.DocMachineReadable, entry.DocumentType)
	require.InDelta(t, 0.92, entry.DetectionConfidence, 0.001)
	require.Equal(t, 3, entry.PageCount)
	require.Equal(t, "invoice total due", entry.ExtractedText)
	require.Equal(t, "invoice", entry.Category)
	require.Equal(t, "idx-"+entry.ID, entry.IndexRef)
	require.False(t, entry.ExtractionFallback)
	require.Nil(t, entry.Error)
	require.Zero(t, entry.Attempts)
	require.Empty(t, entry.LeaseOwner, "lease must be released after completion")

	require.EqualValues(t, 1, s.detector.calls.Load())
	require.EqualValues(t, 1, s.extractor.calls.Load())
	require.EqualValues(t, 1, s.classifier.calls.Load())
	require.EqualValues(t, 1, s.indexer.calls.Load())
}

func TestTransientFailureRetriesUntilCeiling(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRetryCeilings(3))
	s := happyStubs()
	s.indexer.err = services.Wrap(services.ErrTransient, "indexing", "index", "backend unavailable", nil)
	m, store := newTestManager(t, cfg, s)

	path := filepath.Join(cfg.Paths.InputDir, "doomed.pdf")
	testsupport.WritePDF(t, path, 256)
	runBatch(t, m, []string{path})

	entry, err := store.GetByPath(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, ledger.StageFailed, entry.Stage)
	require.NotNil(t, entry.Error)
	require.Equal(t, services.KindRetriesExhausted, entry.Error.Kind)
	require.Equal(t, ledger.StageIndexing, entry.Error.Stage)
	require.Equal(t, 3, entry.Attempts)
	require.EqualValues(t, 3, s.indexer.calls.Load())
	// Earlier stages ran exactly once; only indexing was retried.
	require.EqualValues(t, 1, s.detector.calls.Load())
	require.EqualValues(t, 1, s.extractor.calls.Load())
}

func TestPermanentFailureDoesNotRetry(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRetryCeilings(5))
	s := happyStubs()
	s.detector.err = services.Wrap(services.ErrPermanentInput, "format_detection", "validate", "corrupt document", nil)
	m, store := newTestManager(t, cfg, s)

	path := filepath.Join(cfg.Paths.InputDir, "corrupt.pdf")
	testsupport.WritePDF(t, path, 64)
	runBatch(t, m, []string{path})

	entry, err := store.GetByPath(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, ledger.StageFailed, entry.Stage)
	require.Equal(t, services.KindPermanentFailure, entry.Error.Kind)
	require.Equal(t, ledger.StageFormatDetection, entry.Error.Stage)
	require.Equal(t, 1, entry.Attempts)
	require.EqualValues(t, 1, s.detector.calls.Load())
	require.Zero(t, s.extractor.calls.Load())
}

func TestTransientFailureRecovers(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRetryCeilings(5))
	s := happyStubs()
	s.indexer.err = services.Wrap(services.ErrTransient, "indexing", "index", "timeout", nil)
	s.indexer.failUntil = 2
	m, store := newTestManager(t, cfg, s)

	path := filepath.Join(cfg.Paths.InputDir, "flaky.pdf")
	testsupport.WritePDF(t, path, 128)
	runBatch(t, m, []string{path})

	entry, err := store.GetByPath(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, ledger.StageCompleted, entry.Stage)
	require.Nil(t, entry.Error)
	require.Zero(t, entry.Attempts)
	require.EqualValues(t, 3, s.indexer.calls.Load())
}

func TestUnknownTypeFallsBackToDefaultStrategy(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := happyStubs()
	s.detector.result = detect.Result{Type: ledger.DocUnknown, Confidence: 0}
	m, store := newTestManager(t, cfg, s)

	path := filepath.Join(cfg.Paths.InputDir, "ambiguous.pdf")
	testsupport.WritePDF(t, path, 128)
	runBatch(t, m, []string{path})

	entry, err := store.GetByPath(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, ledger.StageCompleted, entry.Stage)
	require.True(t, entry.ExtractionFallback)
	got, _ := s.extractor.lastType.Load().(ledger.DocumentType)
	require.Equal(t, extract.StrategyForDefault(cfg.Detection.DefaultStrategy), got)
}

func TestRediscoveredTerminalFileIsIgnored(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := happyStubs()
	m, store := newTestManager(t, cfg, s)

	path := filepath.Join(cfg.Paths.InputDir, "once.pdf")
	testsupport.WritePDF(t, path, 64)
	runBatch(t, m, []string{path})
	require.EqualValues(t, 1, s.detector.calls.Load())

	runBatch(t, m, []string{path})
	require.EqualValues(t, 1, s.detector.calls.Load(), "completed entry must not reprocess")

	entry, err := store.GetByPath(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, ledger.StageCompleted, entry.Stage)
}

func TestResumeContinuesFromPersistedStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := happyStubs()
	m, store := newTestManager(t, cfg, s)

	path := filepath.Join(cfg.Paths.InputDir, "interrupted.pdf")
	testsupport.WritePDF(t, path, 64)
	entry := testsupport.NewEntry(t, store, path)
	entry.Stage = ledger.StageExtraction
	entry.DocumentType = ledger.DocMachineReadable
	entry.DetectionConfidence = 0.9
	require.NoError(t, store.Update(context.Background(), entry))

	// Empty batch: the only work comes from the resume scan.
	runBatch(t, m, []string{cfg.Paths.InputDir})

	resumed, err := store.GetByID(context.Background(), entry.ID)
	require.NoError(t, err)
	require.Equal(t, ledger.StageCompleted, resumed.Stage)
	require.Zero(t, s.detector.calls.Load(), "detection already ran before the interruption")
	require.EqualValues(t, 1, s.extractor.calls.Load())
}

func TestPanickingHandlerFailsEntryNotDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRetryCeilings(2))
	s := happyStubs()
	s.classifier.panics = true
	m, store := newTestManager(t, cfg, s)

	path := filepath.Join(cfg.Paths.InputDir, "hostile.pdf")
	testsupport.WritePDF(t, path, 64)
	runBatch(t, m, []string{path})

	entry, err := store.GetByPath(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, ledger.StageFailed, entry.Stage)
	// A panic is unclassified, so it retries up to the ceiling first.
	require.Equal(t, services.KindRetriesExhausted, entry.Error.Kind)
	require.Equal(t, ledger.StageClassification, entry.Error.Stage)
	require.Contains(t, entry.Error.Message, "panic")
	require.EqualValues(t, 2, s.classifier.calls.Load())
}

func TestFailedFileDoesNotBlockOthers(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRetryCeilings(1), testsupport.WithWorkers(2))
	s := happyStubs()
	s.indexer.err = services.Wrap(services.ErrTransient, "indexing", "index", "down", nil)
	s.indexer.failUntil = 1
	m, store := newTestManager(t, cfg, s)

	var paths []string
	for i := 0; i < 4; i++ {
		path := filepath.Join(cfg.Paths.InputDir, fmt.Sprintf("doc%d.pdf", i))
		testsupport.WritePDF(t, path, 64)
		paths = append(paths, path)
	}
	runBatch(t, m, paths)

	summary, err := store.Summarize(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 4, summary.Total)
	require.EqualValues(t, 3, summary.Completed)
	require.EqualValues(t, 1, summary.Failed)
}

func TestConcurrentBatchDrainsCompletely(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(4))
	s := happyStubs()
	m, store := newTestManager(t, cfg, s)

	const files = 20
	var paths []string
	for i := 0; i < files; i++ {
		path := filepath.Join(cfg.Paths.InputDir, fmt.Sprintf("batch%02d.pdf", i))
		testsupport.WritePDF(t, path, 64)
		paths = append(paths, path)
	}
	runBatch(t, m, paths)

	summary, err := store.Summarize(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, files, summary.Total)
	require.EqualValues(t, files, summary.Completed)
	require.EqualValues(t, files, s.detector.calls.Load())
	require.EqualValues(t, files, s.indexer.calls.Load())
}

func TestMoveProcessedRelocatesCompletedFile(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMoveProcessed(true))
	s := happyStubs()
	m, store := newTestManager(t, cfg, s)

	path := filepath.Join(cfg.Paths.InputDir, "archive-me.pdf")
	testsupport.WritePDF(t, path, 64)
	runBatch(t, m, []string{path})

	entry, err := store.GetByID(context.Background(), mustID(t, store, "archive-me.pdf"))
	require.NoError(t, err)
	require.Equal(t, ledger.StageCompleted, entry.Stage)
	require.Equal(t, filepath.Join(cfg.Paths.ProcessedDir, "archive-me.pdf"), entry.FilePath)
	require.FileExists(t, entry.FilePath)
	require.NoFileExists(t, path)
}

func TestResetFailedReturnsEntryToPipeline(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRetryCeilings(1))
	s := happyStubs()
	s.detector.err = services.Wrap(services.ErrPermanentInput, "format_detection", "validate", "bad input", nil)
	m, store := newTestManager(t, cfg, s)

	path := filepath.Join(cfg.Paths.InputDir, "second-chance.pdf")
	testsupport.WritePDF(t, path, 64)
	runBatch(t, m, []string{path})

	entry, err := store.GetByPath(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, ledger.StageFailed, entry.Stage)

	reset, err := m.ResetFailed(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, reset)

	// The input has been repaired: processing now succeeds from scratch.
	s.detector.err = nil
	runBatch(t, m, []string{cfg.Paths.InputDir})

	entry, err = store.GetByPath(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, ledger.StageCompleted, entry.Stage)
	require.Nil(t, entry.Error)
}

func TestShutdownLeavesResumableState(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRetryCeilings(10))
	s := happyStubs()
	s.indexer.err = services.Wrap(services.ErrTransient, "indexing", "index", "still down", nil)
	m, store := newTestManager(t, cfg, s)

	path := filepath.Join(cfg.Paths.InputDir, "inflight.pdf")
	testsupport.WritePDF(t, path, 64)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx, ingest.NewWatch(cfg, nil))
	}()

	// Wait until the entry has been picked up and parked on backoff, then
	// shut the manager down.
	require.Eventually(t, func() bool {
		return s.indexer.calls.Load() >= 1
	}, 10*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	entry, err := store.GetByPath(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.False(t, entry.IsTerminal(), "interrupted entry must stay resumable")
	require.Equal(t, ledger.StageIndexing, entry.Stage)
}

func mustID(t *testing.T, store *ledger.Store, name string) string {
	t.Helper()
	entries, err := store.List(context.Background(), ledger.ListFilter{})
	require.NoError(t, err)
	for _, e := range entries {
		if e.FileName == name {
			return e.ID
		}
	}
	t.Fatalf("no entry named %s", name)
	return ""
}

func TestHealthChecksCoverEveryStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := happyStubs()
	m, _ := newTestManager(t, cfg, s)

	checks := m.HealthChecks(context.Background())
	require.Len(t, checks, 4)
	var names []string
	for _, check := range checks {
		require.True(t, check.Ready, "stage %s unexpectedly unhealthy: %s", check.Name, check.Detail)
		names = append(names, check.Name)
	}
	require.Equal(t, []string{"format_detection", "extraction", "classification", "indexing"}, names)
}
