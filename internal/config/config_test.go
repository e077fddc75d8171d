package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vellum/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Workflow.WorkerPoolSize <= 0 {
		t.Fatal("expected positive worker pool size")
	}
	if cfg.Detection.TextThreshold != 100 {
		t.Fatalf("expected text threshold 100, got %d", cfg.Detection.TextThreshold)
	}
	if cfg.Search.Index != "pdf_documents" {
		t.Fatalf("unexpected default index %q", cfg.Search.Index)
	}
	if len(cfg.Classification.Rules) == 0 {
		t.Fatal("expected default classification rules")
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
input_dir = "` + filepath.Join(dir, "in") + `"
processed_dir = "` + filepath.Join(dir, "out") + `"
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[workflow]
worker_pool_size = 9
retry_indexing = 7

[detection]
default_strategy = "text"

[classification.rules]
contract = ["agreement", "party of the first part"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s to exist, got %s exists=%v", path, resolved, exists)
	}
	if cfg.Workflow.WorkerPoolSize != 9 {
		t.Fatalf("expected worker pool 9, got %d", cfg.Workflow.WorkerPoolSize)
	}
	if cfg.Workflow.RetryIndexing != 7 {
		t.Fatalf("expected retry_indexing 7, got %d", cfg.Workflow.RetryIndexing)
	}
	if cfg.Detection.DefaultStrategy != "text" {
		t.Fatalf("expected text strategy, got %q", cfg.Detection.DefaultStrategy)
	}
	if _, ok := cfg.Classification.Rules["contract"]; !ok {
		t.Fatalf("expected contract rule, got %#v", cfg.Classification.Rules)
	}
	// Untouched sections keep defaults.
	if cfg.Detection.MaxPagesAnalyzed != 3 {
		t.Fatalf("expected default max pages, got %d", cfg.Detection.MaxPagesAnalyzed)
	}
}

func TestLoadRejectsInvalidStrategy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[detection]\ndefault_strategy = \"guess\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for bad strategy")
	}
}

func TestValidateSearchRequiresHTTPURL(t *testing.T) {
	cfg := config.Default()
	cfg.Search.Enabled = true
	cfg.Search.URL = "localhost:9200"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for non-http search url")
	}
}

func TestValidateRejectsEmptyRule(t *testing.T) {
	cfg := config.Default()
	cfg.Classification.Rules = map[string][]string{"empty": {}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for rule without keywords")
	}
}

func TestWriteSampleParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to be detected")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}

func TestLedgerPath(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/var/lib/vellum"
	if got := cfg.LedgerPath(); !strings.HasSuffix(got, filepath.Join("vellum", "ledger.db")) {
		t.Fatalf("unexpected ledger path %q", got)
	}
}
