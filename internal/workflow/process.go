package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"vellum/internal/fileutil"
	"vellum/internal/ledger"
	"vellum/internal/logging"
	"vellum/internal/services"
	"vellum/internal/stage"
)

// processEntry runs one processing pass for an entry: acquire the lease,
// advance stage by stage until a terminal state, a transient failure parks
// the entry on backoff, or the context is cancelled. The return value
// reports whether a retry was scheduled, in which case the entry keeps its
// place in the pending count.
func (m *Manager) processEntry(ctx context.Context, entry *ledger.Entry) bool {
	if entry.IsTerminal() {
		return false
	}

	acquired, err := m.store.TryAcquireLease(ctx, entry.ID, m.instance)
	if err != nil {
		m.setLastError(err)
		m.logger.Error("lease acquisition failed",
			logging.Error(err),
			logging.String(logging.FieldEntryID, entry.ID),
		)
		return false
	}
	if !acquired {
		m.logger.Debug("entry already leased, skipping",
			logging.String(logging.FieldEntryID, entry.ID),
		)
		return false
	}

	released := false
	defer func() {
		if !released {
			m.releaseLease(ctx, entry.ID)
		}
	}()

	entryCtx := services.WithEntryID(ctx, entry.ID)
	entryCtx = services.WithRequestID(entryCtx, uuid.NewString())

	for !entry.IsTerminal() {
		if ctx.Err() != nil {
			// Shutdown mid-pipeline. The persisted stage is the resume point.
			return false
		}

		if entry.Stage == ledger.StageDiscovered {
			entry.Stage = ledger.StageFormatDetection
			entry.Attempts = 0
			if err := m.persist(entryCtx, entry); err != nil {
				return false
			}
		}

		current := entry.Stage
		stageCtx := services.WithStage(entryCtx, string(current))
		stageLogger := logging.WithContext(stageCtx, m.logger)

		handler, ok := m.handlers[current]
		if !ok {
			m.fail(stageCtx, entry, current,
				services.KindConfiguration,
				fmt.Errorf("no handler registered for stage %s", current))
			return false
		}

		// The attempt is durable before the gateway call so a crash during
		// execution still counts against the ceiling after restart.
		entry.Attempts++
		if err := m.persist(stageCtx, entry); err != nil {
			return false
		}

		stageLogger.Info("stage started",
			logging.String(logging.FieldEventType, "stage_start"),
			logging.Int("attempt", entry.Attempts),
		)

		start := time.Now()
		execErr := m.executeStage(stageCtx, handler, entry)
		elapsed := time.Since(start)
		entry.ProcessingDurationMs += elapsed.Milliseconds()

		if execErr == nil {
			next, ok := ledger.Next(current)
			if !ok {
				m.fail(stageCtx, entry, current,
					services.KindConfiguration,
					fmt.Errorf("stage %s has no successor", current))
				return false
			}
			entry.Stage = next
			entry.Attempts = 0
			if next == ledger.StageCompleted {
				m.complete(stageCtx, entry)
				return false
			}
			if err := m.persist(stageCtx, entry); err != nil {
				return false
			}
			stageLogger.Info("stage completed",
				logging.String(logging.FieldEventType, "stage_complete"),
				logging.String("next_stage", string(next)),
				logging.Duration("stage_duration", elapsed),
			)
			continue
		}

		if ctx.Err() != nil && errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return false
		}

		if services.IsTransient(execErr) && entry.Attempts < m.retryCeiling(current) {
			delay := m.retryDelay(entry.Attempts)
			stageLogger.Warn("stage failed, retry scheduled",
				logging.Error(execErr),
				logging.String(logging.FieldEventType, "stage_retry"),
				logging.Int("attempt", entry.Attempts),
				logging.Int("ceiling", m.retryCeiling(current)),
				logging.Duration("delay", delay),
			)
			if err := m.persist(stageCtx, entry); err != nil {
				return false
			}
			m.releaseLease(ctx, entry.ID)
			released = true
			m.scheduleRetry(ctx, entry.ID, delay)
			return true
		}

		kind := services.FailureKind(execErr)
		if services.IsTransient(execErr) {
			kind = services.KindRetriesExhausted
		}
		m.fail(stageCtx, entry, current, kind, execErr)
		return false
	}
	return false
}

// executeStage invokes the handler under the gateway timeout with panic
// isolation: a panicking collaborator fails this entry, never the daemon.
func (m *Manager) executeStage(ctx context.Context, handler stage.Handler, entry *ledger.Entry) (err error) {
	execCtx := ctx
	if m.gatewayTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, m.gatewayTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage panic: %v", r)
		}
	}()
	return handler.Execute(execCtx, entry)
}

// fail records a terminal failure with structured error detail.
func (m *Manager) fail(ctx context.Context, entry *ledger.Entry, failedStage ledger.Stage, kind string, cause error) {
	entry.Stage = ledger.StageFailed
	entry.Error = &ledger.ErrorDetail{
		Kind:    kind,
		Message: services.Details(cause),
		Stage:   failedStage,
	}
	logger := logging.WithContext(ctx, m.logger)
	if err := m.persist(ctx, entry); err != nil {
		return
	}
	logger.Error("entry failed",
		logging.Error(cause),
		logging.String(logging.FieldEventType, "entry_failed"),
		logging.String("failed_stage", string(failedStage)),
		logging.String("error_kind", kind),
		logging.Int("attempts", entry.Attempts),
	)
	m.setLastError(cause)
}

// complete finalizes a successful run: optionally relocates the source file
// to the processed directory, then persists the terminal stage.
func (m *Manager) complete(ctx context.Context, entry *ledger.Entry) {
	logger := logging.WithContext(ctx, m.logger)
	if m.cfg.Ingest.MoveProcessed && m.cfg.Paths.ProcessedDir != "" {
		if err := m.moveProcessed(entry); err != nil {
			// Relocation is best effort; the pipeline result stands.
			logger.Warn("failed to move processed file",
				logging.Error(err),
				logging.String("path", entry.FilePath),
			)
		}
	}
	if err := m.persist(ctx, entry); err != nil {
		return
	}
	logger.Info("entry completed",
		logging.String(logging.FieldEventType, "entry_completed"),
		logging.String("document_type", string(entry.DocumentType)),
		logging.String("category", entry.Category),
		logging.Int("pages", entry.PageCount),
		logging.Bool("fallback_extraction", entry.ExtractionFallback),
		logging.String("index_ref", entry.IndexRef),
		logging.Int64("duration_ms", entry.ProcessingDurationMs),
	)
}

func (m *Manager) moveProcessed(entry *ledger.Entry) error {
	if err := os.MkdirAll(m.cfg.Paths.ProcessedDir, 0o755); err != nil {
		return err
	}
	target := filepath.Join(m.cfg.Paths.ProcessedDir, entry.FileName)
	if _, err := os.Stat(target); err == nil {
		// Same-named file already archived; disambiguate with the entry ID.
		target = filepath.Join(m.cfg.Paths.ProcessedDir, entry.ID+"_"+entry.FileName)
	}
	if err := fileutil.MoveFile(entry.FilePath, target); err != nil {
		return err
	}
	entry.FilePath = target
	return nil
}

// persist writes the entry through a cancellation-proof context so terminal
// transitions survive shutdown races.
func (m *Manager) persist(ctx context.Context, entry *ledger.Entry) error {
	if err := m.store.Update(context.WithoutCancel(ctx), entry); err != nil {
		m.setLastError(err)
		m.logger.Error("failed to persist entry",
			logging.Error(err),
			logging.String(logging.FieldEntryID, entry.ID),
			logging.String(logging.FieldStage, string(entry.Stage)),
		)
		return err
	}
	return nil
}

func (m *Manager) releaseLease(ctx context.Context, id string) {
	if err := m.store.ReleaseLease(context.WithoutCancel(ctx), id, m.instance); err != nil {
		m.logger.Warn("failed to release lease",
			logging.Error(err),
			logging.String(logging.FieldEntryID, id),
		)
	}
}
