package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"vellum/internal/fileutil"
	"vellum/internal/logging"
)

// Batch enumerates a fixed input set once and terminates: a finite,
// non-restartable sequence.
type Batch struct {
	paths     []string
	recursive bool
	logger    *slog.Logger
}

// NewBatch constructs a batch source over the given files or directories.
func NewBatch(paths []string, recursive bool, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Batch{
		paths:     paths,
		recursive: recursive,
		logger:    logger.With(logging.String(logging.FieldComponent, "ingest.batch")),
	}
}

func (b *Batch) Name() string { return "batch" }

// Start enumerates the input set in the background. The returned channel
// closes after the last event or on cancellation.
func (b *Batch) Start(ctx context.Context) (<-chan Event, error) {
	for _, path := range b.paths {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("batch input %s: %w", path, err)
		}
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		count := 0
		for _, path := range b.paths {
			if ctx.Err() != nil {
				return
			}
			n, err := b.enumerate(ctx, path, events)
			count += n
			if err != nil {
				b.logger.Warn("batch enumeration aborted",
					logging.Error(err),
					logging.String("path", path),
				)
				return
			}
		}
		b.logger.Info("batch enumeration complete", logging.Int("files", count))
	}()
	return events, nil
}

func (b *Batch) enumerate(ctx context.Context, root string, events chan<- Event) (int, error) {
	info, err := os.Stat(root)
	if err != nil {
		return 0, err
	}

	if !info.IsDir() {
		if !fileutil.IsPDF(root) {
			return 0, nil
		}
		return 1, emit(ctx, events, Event{Path: root})
	}

	count := 0
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if !b.recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !fileutil.IsPDF(path) {
			return nil
		}
		if err := emit(ctx, events, Event{Path: path}); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

func emit(ctx context.Context, events chan<- Event, event Event) error {
	select {
	case events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
