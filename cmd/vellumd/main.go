package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"vellum/internal/config"
	"vellum/internal/daemon"
	"vellum/internal/deps"
	"vellum/internal/ingest"
	"vellum/internal/ledger"
	"vellum/internal/logging"
	"vellum/internal/workflow"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		if !status.Available && !status.Optional {
			logger.Warn("external dependency unavailable",
				logging.String("name", status.Name),
				logging.String("detail", status.Detail),
			)
		}
	}

	store, err := ledger.Open(cfg)
	if err != nil {
		logger.Error("open ledger store", logging.Error(err))
		os.Exit(1)
	}

	gateways, err := workflow.NewGateways(cfg, logger)
	if err != nil {
		logger.Error("initialize gateways", logging.Error(err))
		os.Exit(1)
	}
	if cfg.Search.Enabled {
		if err := gateways.Indexer.Ping(ctx); err != nil {
			logger.Error("search backend unreachable",
				logging.Error(err),
				logging.String("url", cfg.Search.URL),
			)
			os.Exit(1)
		}
	}

	manager := workflow.NewManager(cfg, store, gateways, logger)
	source := ingest.NewWatch(cfg, logger)

	d, err := daemon.New(cfg, store, manager, source, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	d.Stop()
	logger.Info("vellumd shutting down")
}
