package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeIngest()
	c.normalizeWorkflow()
	c.normalizeDetection()
	c.normalizeOCR()
	c.normalizeClassification()
	c.normalizeSearch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if c.Paths.ProcessedDir, err = expandPath(c.Paths.ProcessedDir); err != nil {
		return fmt.Errorf("paths.processed_dir: %w", err)
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	return nil
}

func (c *Config) normalizeIngest() {
	if c.Ingest.DebounceWindowMs <= 0 {
		c.Ingest.DebounceWindowMs = defaultDebounceWindowMs
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.WorkerPoolSize <= 0 {
		c.Workflow.WorkerPoolSize = defaultWorkerPoolSize
	}
	if c.Workflow.GatewayTimeoutMs <= 0 {
		c.Workflow.GatewayTimeoutMs = defaultGatewayTimeoutMs
	}
	if c.Workflow.BackoffInitialMs <= 0 {
		c.Workflow.BackoffInitialMs = defaultBackoffInitialMs
	}
	if c.Workflow.BackoffMaxMs < c.Workflow.BackoffInitialMs {
		c.Workflow.BackoffMaxMs = defaultBackoffMaxMs
	}
	if c.Workflow.RetryFormatDetection <= 0 {
		c.Workflow.RetryFormatDetection = defaultRetryFormatDetection
	}
	if c.Workflow.RetryExtraction <= 0 {
		c.Workflow.RetryExtraction = defaultRetryExtraction
	}
	if c.Workflow.RetryClassification <= 0 {
		c.Workflow.RetryClassification = defaultRetryClassification
	}
	if c.Workflow.RetryIndexing <= 0 {
		c.Workflow.RetryIndexing = defaultRetryIndexing
	}
}

func (c *Config) normalizeDetection() {
	if c.Detection.TextThreshold <= 0 {
		c.Detection.TextThreshold = defaultTextThreshold
	}
	if c.Detection.MaxPagesAnalyzed <= 0 {
		c.Detection.MaxPagesAnalyzed = defaultMaxPagesAnalyzed
	}
	c.Detection.DefaultStrategy = strings.ToLower(strings.TrimSpace(c.Detection.DefaultStrategy))
	if c.Detection.DefaultStrategy == "" {
		c.Detection.DefaultStrategy = defaultStrategy
	}
}

func (c *Config) normalizeOCR() {
	if strings.TrimSpace(c.OCR.Languages) == "" {
		c.OCR.Languages = defaultOCRLanguages
	}
	if c.OCR.DPI <= 0 {
		c.OCR.DPI = defaultOCRDPI
	}
	if strings.TrimSpace(c.OCR.PdftoppmBin) == "" {
		c.OCR.PdftoppmBin = defaultPdftoppmBin
	}
}

func (c *Config) normalizeClassification() {
	if len(c.Classification.Rules) == 0 {
		c.Classification.Rules = DefaultRules()
	}
}

func (c *Config) normalizeSearch() {
	c.Search.URL = strings.TrimRight(strings.TrimSpace(c.Search.URL), "/")
	if c.Search.URL == "" {
		c.Search.URL = defaultSearchURL
	}
	if strings.TrimSpace(c.Search.Index) == "" {
		c.Search.Index = defaultSearchIndex
	}
	if c.Search.TimeoutSeconds <= 0 {
		c.Search.TimeoutSeconds = defaultSearchTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
