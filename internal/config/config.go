package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	InputDir     string `toml:"input_dir"`
	ProcessedDir string `toml:"processed_dir"`
	DataDir      string `toml:"data_dir"`
	LogDir       string `toml:"log_dir"`
	APIBind      string `toml:"api_bind"`
}

// Ingest contains configuration for the watch and batch ingestion sources.
type Ingest struct {
	Recursive        bool `toml:"recursive"`
	DebounceWindowMs int  `toml:"debounce_window_ms"`
	ScanExisting     bool `toml:"scan_existing"`
	MoveProcessed    bool `toml:"move_processed"`
}

// Workflow contains orchestrator concurrency and retry configuration.
type Workflow struct {
	WorkerPoolSize   int `toml:"worker_pool_size"`
	GatewayTimeoutMs int `toml:"gateway_timeout_ms"`
	BackoffInitialMs int `toml:"backoff_initial_ms"`
	BackoffMaxMs     int `toml:"backoff_max_ms"`

	// Per-stage retry ceilings: total attempts allowed before an entry fails
	// with retries exhausted. Indexing talks to a remote service and warrants
	// more headroom than local extraction.
	RetryFormatDetection int `toml:"retry_format_detection"`
	RetryExtraction      int `toml:"retry_extraction"`
	RetryClassification  int `toml:"retry_classification"`
	RetryIndexing        int `toml:"retry_indexing"`
}

// Detection contains thresholds for the machine-readable vs scanned verdict.
type Detection struct {
	TextThreshold    int    `toml:"text_threshold"`
	MaxPagesAnalyzed int    `toml:"max_pages_analyzed"`
	DefaultStrategy  string `toml:"default_strategy"`
}

// OCR contains configuration for the scanned-document extraction strategy.
type OCR struct {
	Languages   string `toml:"languages"`
	DPI         int    `toml:"dpi"`
	PdftoppmBin string `toml:"pdftoppm_bin"`
}

// Classification contains keyword rules for the document classifier.
type Classification struct {
	// Rules maps a category label to the keywords that select it. First
	// match in rule-name order wins; no match yields "unknown".
	Rules map[string][]string `toml:"rules"`
}

// Search contains configuration for the Elasticsearch index gateway.
type Search struct {
	Enabled        bool   `toml:"enabled"`
	URL            string `toml:"url"`
	Index          string `toml:"index"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Vellum.
//
// Configuration sections by subsystem:
//   - Paths: directories, ledger database location, and API bind address
//   - Ingest: watch debounce and batch scanning behavior
//   - Workflow: worker pool size, gateway timeouts, retry ceilings, backoff
//   - Detection: machine-readable vs scanned thresholds
//   - OCR: tesseract languages and page rasterization settings
//   - Classification: keyword rules for document categories
//   - Search: Elasticsearch connection and index name
//   - Logging: log format and level
type Config struct {
	Paths          Paths          `toml:"paths"`
	Ingest         Ingest         `toml:"ingest"`
	Workflow       Workflow       `toml:"workflow"`
	Detection      Detection      `toml:"detection"`
	OCR            OCR            `toml:"ocr"`
	Classification Classification `toml:"classification"`
	Search         Search         `toml:"search"`
	Logging        Logging        `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vellum/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	projectPath, err := filepath.Abs("vellum.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to the given path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists: %s", expanded)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates all directories the pipeline needs at runtime.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.InputDir, c.Paths.ProcessedDir, c.Paths.DataDir, c.Paths.LogDir}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath returns the location of the SQLite ledger database.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.DataDir, "ledger.db")
}

// ExpandPath resolves ~ and relative segments to an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", trimmed, err)
	}
	return abs, nil
}
