package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vellum/internal/ingest"
	"vellum/internal/testsupport"
)

func waitForEvent(t *testing.T, events <-chan ingest.Event, want string) {
	t.Helper()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case event, ok := <-events:
			require.True(t, ok, "event channel closed before expected event")
			if event.Path == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event for %s", want)
		}
	}
}

func TestWatchEmitsAfterStability(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Ingest.ScanExisting = false

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := ingest.NewWatch(cfg, nil)
	events, err := source.Start(ctx)
	require.NoError(t, err)

	path := filepath.Join(cfg.Paths.InputDir, "arrival.pdf")
	testsupport.WritePDF(t, path, 256)

	waitForEvent(t, events, path)
}

func TestWatchIgnoresNonPDFs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Ingest.ScanExisting = false

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := ingest.NewWatch(cfg, nil)
	events, err := source.Start(ctx)
	require.NoError(t, err)

	testsupport.WriteFile(t, filepath.Join(cfg.Paths.InputDir, "notes.txt"), 64)
	pdf := filepath.Join(cfg.Paths.InputDir, "real.pdf")
	testsupport.WritePDF(t, pdf, 64)

	// The PDF arrives; the text file never does.
	waitForEvent(t, events, pdf)
	select {
	case event := <-events:
		t.Fatalf("unexpected extra event for %s", event.Path)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchScanOffersExistingFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Ingest.ScanExisting = true

	existing := filepath.Join(cfg.Paths.InputDir, "backlog.pdf")
	testsupport.WritePDF(t, existing, 128)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := ingest.NewWatch(cfg, nil)
	events, err := source.Start(ctx)
	require.NoError(t, err)

	waitForEvent(t, events, existing)
}

func TestWatchDebounceWaitsForGrowingFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Ingest.ScanExisting = false
	cfg.Ingest.DebounceWindowMs = 100

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := ingest.NewWatch(cfg, nil)
	events, err := source.Start(ctx)
	require.NoError(t, err)

	path := filepath.Join(cfg.Paths.InputDir, "slow.pdf")
	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = f.WriteString("part one")
	require.NoError(t, err)

	// Keep the file changing across the first debounce window.
	time.Sleep(60 * time.Millisecond)
	_, err = f.WriteString(" part two")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	waitForEvent(t, events, path)
}

func TestWatchChannelClosesOnCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Ingest.ScanExisting = false

	ctx, cancel := context.WithCancel(context.Background())
	source := ingest.NewWatch(cfg, nil)
	events, err := source.Start(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-events:
		require.False(t, ok, "expected channel close, got event")
	case <-time.After(5 * time.Second):
		t.Fatal("channel did not close after cancellation")
	}
}
