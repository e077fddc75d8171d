package workflow

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"vellum/internal/ingest"
	"vellum/internal/logging"
)

// Run consumes the source until it is exhausted or the context is cancelled.
// For a batch source Run returns once every discovered file has reached a
// terminal stage, including files parked on retry backoff. For a watch
// source Run blocks until cancellation.
//
// On startup all stale leases are cleared and every non-terminal entry is
// requeued, so files interrupted by a previous shutdown resume from their
// persisted stage.
func (m *Manager) Run(ctx context.Context, source ingest.Source) error {
	events, err := source.Start(ctx)
	if err != nil {
		return fmt.Errorf("start %s source: %w", source.Name(), err)
	}

	group, workerCtx := errgroup.WithContext(ctx)
	group.SetLimit(m.cfg.Workflow.WorkerPoolSize)

	if err := m.resume(workerCtx, group); err != nil {
		_ = group.Wait()
		return err
	}

	m.logger.Info("workflow started",
		logging.String("source", source.Name()),
		logging.Int("workers", m.cfg.Workflow.WorkerPoolSize),
	)

loop:
	for {
		if events == nil && m.pending.Load() == 0 {
			break
		}
		select {
		case <-ctx.Done():
			break loop
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			m.dispatchPath(workerCtx, group, event.Path)
		case id := <-m.requeue:
			m.dispatchEntry(workerCtx, group, id)
		case <-m.wake:
		}
	}

	_ = group.Wait()
	if ctx.Err() != nil {
		m.logger.Info("workflow stopped")
		return nil
	}
	m.logger.Info("workflow drained")
	return nil
}

// resume clears leases left behind by an unclean shutdown and requeues every
// non-terminal entry. The single-instance lock guarantees no other process
// still holds a lease when this runs.
func (m *Manager) resume(ctx context.Context, group *errgroup.Group) error {
	released, err := m.store.ReleaseAllLeases(ctx)
	if err != nil {
		return fmt.Errorf("release stale leases: %w", err)
	}
	if released > 0 {
		m.logger.Info("cleared stale leases", logging.Int64("count", released))
	}

	entries, err := m.store.NonTerminal(ctx)
	if err != nil {
		return fmt.Errorf("list resumable entries: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	m.logger.Info("resuming interrupted entries", logging.Int("count", len(entries)))
	for _, entry := range entries {
		entry := entry
		m.pending.Add(1)
		group.Go(func() error {
			if !m.processEntry(ctx, entry) {
				m.pending.Add(-1)
				m.notifyIdle()
			}
			return nil
		})
	}
	return nil
}

func (m *Manager) dispatchPath(ctx context.Context, group *errgroup.Group, path string) {
	m.pending.Add(1)
	group.Go(func() error {
		if !m.handlePath(ctx, path) {
			m.pending.Add(-1)
			m.notifyIdle()
		}
		return nil
	})
}

func (m *Manager) dispatchEntry(ctx context.Context, group *errgroup.Group, id string) {
	group.Go(func() error {
		entry, err := m.store.GetByID(ctx, id)
		if err != nil || entry == nil {
			if err != nil {
				m.setLastError(err)
				m.logger.Error("failed to load entry for retry",
					logging.Error(err),
					logging.String(logging.FieldEntryID, id),
				)
			}
			m.pending.Add(-1)
			m.notifyIdle()
			return nil
		}
		if !m.processEntry(ctx, entry) {
			m.pending.Add(-1)
			m.notifyIdle()
		}
		return nil
	})
}

// handlePath registers a discovered file and processes it. Re-discovery of a
// path already under management is folded into the existing entry; terminal
// entries stay untouched.
func (m *Manager) handlePath(ctx context.Context, path string) bool {
	entry, created, err := m.store.NewEntry(ctx, path)
	if err != nil {
		m.setLastError(err)
		m.logger.Error("failed to register discovered file",
			logging.Error(err),
			logging.String("path", path),
		)
		return false
	}
	if !created && entry.IsTerminal() {
		m.logger.Debug("ignoring re-discovered terminal file",
			logging.String(logging.FieldEntryID, entry.ID),
			logging.String(logging.FieldStage, string(entry.Stage)),
			logging.String("path", path),
		)
		return false
	}
	if created {
		m.logger.Info("file discovered",
			logging.String(logging.FieldEntryID, entry.ID),
			logging.String("path", path),
			logging.Int64("size_bytes", entry.FileSize),
		)
	}
	return m.processEntry(ctx, entry)
}

// scheduleRetry hands the entry back to the dispatcher after the backoff
// delay. The pending count stays held by the parked entry until its retry
// pass finishes.
func (m *Manager) scheduleRetry(ctx context.Context, id string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		select {
		case m.requeue <- id:
		case <-ctx.Done():
			m.pending.Add(-1)
			m.notifyIdle()
		}
	})
}

// ResetFailed returns failed entries to the start of the pipeline. With no
// ids every failed entry is reset. The reset entries are picked up on the
// next daemon start, or immediately when called on a running manager's store
// followed by a requeue.
func (m *Manager) ResetFailed(ctx context.Context, ids ...string) (int64, error) {
	return m.store.ResetForRetry(ctx, ids...)
}
