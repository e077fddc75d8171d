package extract

import (
	"context"
	"fmt"
	"log/slog"

	"vellum/internal/config"
	"vellum/internal/ledger"
	"vellum/internal/logging"
	"vellum/internal/services"
)

// Result is the output of a text-extraction attempt.
type Result struct {
	Text      string
	PageCount int
}

// Service is the extraction gateway contract. The strategy is selected by
// the document type; callers resolve Unknown to a concrete type before
// invoking Extract.
type Service interface {
	Extract(ctx context.Context, path string, docType ledger.DocumentType) (Result, error)
}

// Strategy extracts text from a single PDF using one concrete technique.
type Strategy interface {
	Extract(ctx context.Context, path string) (Result, error)
}

// Extractor routes files to the embedded-text or OCR strategy.
type Extractor struct {
	text   Strategy
	ocr    Strategy
	logger *slog.Logger
}

// NewExtractor builds the extraction gateway with the default strategies.
func NewExtractor(cfg *config.Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "extract"))
	return &Extractor{
		text:   NewTextStrategy(),
		ocr:    NewOCRStrategy(cfg),
		logger: logger,
	}
}

// NewExtractorWithStrategies allows injecting strategies (used in tests).
func NewExtractorWithStrategies(text, ocr Strategy, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{text: text, ocr: ocr, logger: logger}
}

// Extract runs the strategy matching the document type.
func (e *Extractor) Extract(ctx context.Context, path string, docType ledger.DocumentType) (Result, error) {
	logger := logging.WithContext(ctx, e.logger)

	var strategy Strategy
	switch docType {
	case ledger.DocMachineReadable:
		strategy = e.text
	case ledger.DocScanned:
		strategy = e.ocr
	default:
		return Result{}, services.Wrap(services.ErrPermanentInput, "extraction", "select strategy",
			fmt.Sprintf("no extraction strategy for document type %q", docType), nil)
	}

	result, err := strategy.Extract(ctx, path)
	if err != nil {
		return Result{}, err
	}
	logger.Info("text extracted",
		logging.String("strategy", string(docType)),
		logging.Int("page_count", result.PageCount),
		logging.Int("text_length", len(result.Text)),
	)
	return result, nil
}

// StrategyForDefault maps the configured default strategy name to the
// document type it implies, for files whose format verdict is Unknown.
func StrategyForDefault(name string) ledger.DocumentType {
	if name == "text" {
		return ledger.DocMachineReadable
	}
	return ledger.DocScanned
}
