package ingest_test

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vellum/internal/ingest"
	"vellum/internal/testsupport"
)

func collect(t *testing.T, events <-chan ingest.Event) []string {
	t.Helper()
	var paths []string
	timeout := time.After(5 * time.Second)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				sort.Strings(paths)
				return paths
			}
			paths = append(paths, event.Path)
		case <-timeout:
			t.Fatal("timed out waiting for batch events")
		}
	}
}

func TestBatchEnumeratesPDFs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := cfg.Paths.InputDir
	a := filepath.Join(root, "a.pdf")
	b := filepath.Join(root, "b.PDF")
	testsupport.WritePDF(t, a, 1)
	testsupport.WritePDF(t, b, 1)
	testsupport.WriteFile(t, filepath.Join(root, "notes.txt"), 1)
	nested := filepath.Join(root, "sub", "c.pdf")
	testsupport.WritePDF(t, nested, 1)

	source := ingest.NewBatch([]string{root}, true, nil)
	events, err := source.Start(context.Background())
	require.NoError(t, err)

	paths := collect(t, events)
	require.Equal(t, []string{a, b, nested}, paths)
}

func TestBatchNonRecursiveSkipsSubdirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := cfg.Paths.InputDir
	top := filepath.Join(root, "top.pdf")
	testsupport.WritePDF(t, top, 1)
	testsupport.WritePDF(t, filepath.Join(root, "sub", "nested.pdf"), 1)

	source := ingest.NewBatch([]string{root}, false, nil)
	events, err := source.Start(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{top}, collect(t, events))
}

func TestBatchAcceptsSingleFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := filepath.Join(cfg.Paths.InputDir, "single.pdf")
	testsupport.WritePDF(t, path, 1)

	source := ingest.NewBatch([]string{path}, false, nil)
	events, err := source.Start(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{path}, collect(t, events))
}

func TestBatchRejectsMissingPath(t *testing.T) {
	source := ingest.NewBatch([]string{filepath.Join(t.TempDir(), "absent")}, false, nil)
	_, err := source.Start(context.Background())
	require.Error(t, err)
}

func TestBatchStopsOnCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	for i := 0; i < 10; i++ {
		testsupport.WritePDF(t, filepath.Join(cfg.Paths.InputDir, "f"+string(rune('a'+i))+".pdf"), 1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	source := ingest.NewBatch([]string{cfg.Paths.InputDir}, false, nil)
	events, err := source.Start(ctx)
	require.NoError(t, err)

	cancel()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel did not close after cancellation")
		}
	}
}
