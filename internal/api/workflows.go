package api

import (
	"context"
	"fmt"
	"log/slog"

	"vellum/internal/config"
	"vellum/internal/deps"
	"vellum/internal/ingest"
	"vellum/internal/ledger"
	"vellum/internal/logging"
	"vellum/internal/workflow"
)

// ListEntries opens the ledger and returns a page of entries for CLI use.
func ListEntries(ctx context.Context, cfg *config.Config, req ListRequest) (EntryListResponse, error) {
	store, err := openStore(cfg)
	if err != nil {
		return EntryListResponse{}, err
	}
	defer store.Close()
	return NewLedgerService(store).List(ctx, req)
}

// DescribeEntry fetches a single entry by identifier.
func DescribeEntry(ctx context.Context, cfg *config.Config, id string) (*EntryResponse, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return NewLedgerService(store).Describe(ctx, id)
}

// Status reports ledger occupancy plus external dependency availability.
func Status(ctx context.Context, cfg *config.Config) (DaemonStatus, error) {
	store, err := openStore(cfg)
	if err != nil {
		return DaemonStatus{}, err
	}
	defer store.Close()

	service := NewLedgerService(store)
	summary, err := service.Summary(ctx)
	if err != nil {
		return DaemonStatus{}, fmt.Errorf("summarize ledger: %w", err)
	}
	stats, err := service.Stats(ctx)
	if err != nil {
		return DaemonStatus{}, fmt.Errorf("collect stage stats: %w", err)
	}

	return DaemonStatus{
		LedgerPath:   store.Path(),
		Summary:      summary,
		Stages:       stats.Counts,
		Dependencies: FromDependencyStatuses(deps.CheckBinaries(deps.Requirements(cfg))),
	}, nil
}

// RetryEntries returns failed entries to the start of the pipeline. With no
// ids every failed entry is reset. Returns the number of entries reset.
func RetryEntries(ctx context.Context, cfg *config.Config, ids ...string) (int64, error) {
	store, err := openStore(cfg)
	if err != nil {
		return 0, err
	}
	defer store.Close()
	return store.ResetForRetry(ctx, ids...)
}

// RunBatch processes a fixed set of files or directories to completion.
// It owns the full pipeline lifecycle: store, gateways, worker pool.
func RunBatch(ctx context.Context, cfg *config.Config, logger *slog.Logger, paths []string, recursive bool) error {
	if len(paths) == 0 {
		return fmt.Errorf("no input paths given")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	gateways, err := workflow.NewGateways(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize gateways: %w", err)
	}
	manager := workflow.NewManager(cfg, store, gateways, logger)
	source := ingest.NewBatch(paths, recursive, logger)
	return manager.Run(ctx, source)
}

// HealthChecks probes stage readiness without starting the pipeline.
func HealthChecks(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]StageHealth, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	gateways, err := workflow.NewGateways(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize gateways: %w", err)
	}
	manager := workflow.NewManager(cfg, store, gateways, logger)
	return FromStageHealth(manager.HealthChecks(ctx)), nil
}

func openStore(cfg *config.Config) (*ledger.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	store, err := ledger.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open ledger store: %w", err)
	}
	return store, nil
}
