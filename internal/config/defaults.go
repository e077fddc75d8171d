package config

const (
	defaultInputDir     = "~/.local/share/vellum/input"
	defaultProcessedDir = "~/.local/share/vellum/processed"
	defaultDataDir      = "~/.local/share/vellum/data"
	defaultLogDir       = "~/.local/share/vellum/logs"
	defaultAPIBind      = "127.0.0.1:7519"

	defaultDebounceWindowMs = 2000

	defaultWorkerPoolSize       = 4
	defaultGatewayTimeoutMs     = 120000
	defaultBackoffInitialMs     = 500
	defaultBackoffMaxMs         = 30000
	defaultRetryFormatDetection = 2
	defaultRetryExtraction      = 2
	defaultRetryClassification  = 2
	defaultRetryIndexing        = 5

	defaultTextThreshold    = 100
	defaultMaxPagesAnalyzed = 3
	defaultStrategy         = "ocr"

	defaultOCRLanguages = "eng"
	defaultOCRDPI       = 300
	defaultPdftoppmBin  = "pdftoppm"

	defaultSearchURL            = "http://localhost:9200"
	defaultSearchIndex          = "pdf_documents"
	defaultSearchTimeoutSeconds = 30

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:     defaultInputDir,
			ProcessedDir: defaultProcessedDir,
			DataDir:      defaultDataDir,
			LogDir:       defaultLogDir,
			APIBind:      defaultAPIBind,
		},
		Ingest: Ingest{
			Recursive:        true,
			DebounceWindowMs: defaultDebounceWindowMs,
			ScanExisting:     true,
			MoveProcessed:    true,
		},
		Workflow: Workflow{
			WorkerPoolSize:       defaultWorkerPoolSize,
			GatewayTimeoutMs:     defaultGatewayTimeoutMs,
			BackoffInitialMs:     defaultBackoffInitialMs,
			BackoffMaxMs:         defaultBackoffMaxMs,
			RetryFormatDetection: defaultRetryFormatDetection,
			RetryExtraction:      defaultRetryExtraction,
			RetryClassification:  defaultRetryClassification,
			RetryIndexing:        defaultRetryIndexing,
		},
		Detection: Detection{
			TextThreshold:    defaultTextThreshold,
			MaxPagesAnalyzed: defaultMaxPagesAnalyzed,
			DefaultStrategy:  defaultStrategy,
		},
		OCR: OCR{
			Languages:   defaultOCRLanguages,
			DPI:         defaultOCRDPI,
			PdftoppmBin: defaultPdftoppmBin,
		},
		Classification: Classification{
			Rules: DefaultRules(),
		},
		Search: Search{
			Enabled:        false,
			URL:            defaultSearchURL,
			Index:          defaultSearchIndex,
			TimeoutSeconds: defaultSearchTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// DefaultRules returns the built-in keyword rules for document categories.
func DefaultRules() map[string][]string {
	return map[string][]string{
		"invoice": {"invoice", "invoice number", "amount due"},
		"receipt": {"receipt", "payment received"},
		"report":  {"report", "executive summary"},
	}
}
