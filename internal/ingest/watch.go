package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"vellum/internal/config"
	"vellum/internal/fileutil"
	"vellum/internal/logging"
)

// Watch monitors a directory for arriving PDFs and reports each file once
// its size and modification time have been stable for the debounce window.
// The sequence never terminates under normal operation; cancelling the
// context stops event emission while in-flight processing drains elsewhere.
type Watch struct {
	root         string
	recursive    bool
	debounce     time.Duration
	scanExisting bool
	logger       *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingFile
}

type pendingFile struct {
	timer    *time.Timer
	snapshot fileutil.Snapshot
}

// NewWatch constructs a watch source from configuration.
func NewWatch(cfg *config.Config, logger *slog.Logger) *Watch {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watch{
		root:         cfg.Paths.InputDir,
		recursive:    cfg.Ingest.Recursive,
		debounce:     time.Duration(cfg.Ingest.DebounceWindowMs) * time.Millisecond,
		scanExisting: cfg.Ingest.ScanExisting,
		logger:       logger.With(logging.String(logging.FieldComponent, "ingest.watch")),
		pending:      make(map[string]*pendingFile),
	}
}

func (w *Watch) Name() string { return "watch" }

// Start begins monitoring. The returned channel closes once the context is
// cancelled and the watcher has shut down.
func (w *Watch) Start(ctx context.Context) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := w.addWatches(watcher); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	events := make(chan Event)
	go w.run(ctx, watcher, events)

	if w.scanExisting {
		go w.scan(ctx, events)
	}

	w.logger.Info("watching for PDFs",
		logging.String("root", w.root),
		logging.Bool("recursive", w.recursive),
		logging.Duration("debounce", w.debounce),
	)
	return events, nil
}

func (w *Watch) addWatches(watcher *fsnotify.Watcher) error {
	if !w.recursive {
		if err := watcher.Add(w.root); err != nil {
			return fmt.Errorf("watch %s: %w", w.root, err)
		}
		return nil
	}
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watch) run(ctx context.Context, watcher *fsnotify.Watcher, events chan<- Event) {
	defer close(events)
	defer watcher.Close()
	defer w.stopPending()

	for {
		select {
		case <-ctx.Done():
			return
		case fsEvent, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(ctx, watcher, fsEvent, events)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", logging.Error(err))
		}
	}
}

func (w *Watch) handleFsEvent(ctx context.Context, watcher *fsnotify.Watcher, fsEvent fsnotify.Event, events chan<- Event) {
	if fsEvent.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	if w.recursive && fsEvent.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(fsEvent.Name); err == nil && info.IsDir() {
			if err := watcher.Add(fsEvent.Name); err != nil {
				w.logger.Warn("failed to watch new directory",
					logging.Error(err),
					logging.String("path", fsEvent.Name),
				)
			}
			return
		}
	}

	if !fileutil.IsPDF(fsEvent.Name) {
		return
	}
	w.schedule(ctx, fsEvent.Name, events)
}

// schedule arms (or re-arms) the debounce timer for a path. When the timer
// fires, the file is emitted only if it still matches the snapshot taken at
// arming time; otherwise the write is still in progress and the timer
// re-arms with a fresh snapshot.
func (w *Watch) schedule(ctx context.Context, path string, events chan<- Event) {
	snapshot, err := fileutil.Snap(path)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if existing, ok := w.pending[path]; ok {
		existing.snapshot = snapshot
		existing.timer.Reset(w.debounce)
		return
	}

	pf := &pendingFile{snapshot: snapshot}
	pf.timer = time.AfterFunc(w.debounce, func() {
		w.fire(ctx, path, events)
	})
	w.pending[path] = pf
}

func (w *Watch) fire(ctx context.Context, path string, events chan<- Event) {
	w.mu.Lock()
	pf, ok := w.pending[path]
	if !ok {
		w.mu.Unlock()
		return
	}
	if !pf.snapshot.Matches(path) {
		// Still being written; take a fresh snapshot and wait again.
		if snapshot, err := fileutil.Snap(path); err == nil {
			pf.snapshot = snapshot
			pf.timer.Reset(w.debounce)
			w.mu.Unlock()
			return
		}
		// File vanished mid-write.
		delete(w.pending, path)
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.mu.Unlock()

	select {
	case events <- Event{Path: path}:
	case <-ctx.Done():
	}
}

// scan re-offers PDFs already present under the root at startup through the
// same debounce path as fresh arrivals.
func (w *Watch) scan(ctx context.Context, events chan<- Event) {
	count := 0
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if !w.recursive && path != w.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !fileutil.IsPDF(path) {
			return nil
		}
		w.schedule(ctx, path, events)
		count++
		return nil
	})
	if err != nil && ctx.Err() == nil {
		w.logger.Warn("initial scan failed", logging.Error(err))
		return
	}
	if count > 0 {
		w.logger.Info("initial scan queued existing files", logging.Int("files", count))
	}
}

func (w *Watch) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, pf := range w.pending {
		pf.timer.Stop()
		delete(w.pending, path)
	}
}
