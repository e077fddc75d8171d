package detect

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"vellum/internal/config"
	"vellum/internal/ledger"
	"vellum/internal/logging"
	"vellum/internal/services"
)

// Result is the format-detection verdict for a file.
type Result struct {
	Type       ledger.DocumentType
	Confidence float64
	PageCount  int
}

// Service is the format classifier gateway contract.
type Service interface {
	Detect(ctx context.Context, path string) (Result, error)
}

// Detector decides whether a PDF is machine-readable or scanned by sampling
// the embedded text layer of its leading pages.
type Detector struct {
	textThreshold int
	maxPages      int
	logger        *slog.Logger
}

// NewDetector constructs a detector from configuration.
func NewDetector(cfg *config.Config, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Detector{
		textThreshold: cfg.Detection.TextThreshold,
		maxPages:      cfg.Detection.MaxPagesAnalyzed,
		logger:        logger.With(logging.String(logging.FieldComponent, "detect")),
	}
}

// Detect validates the PDF and samples its text layer. A file pdfcpu rejects
// is a permanent input failure; a structurally valid file whose text layer
// cannot be read yields an Unknown verdict rather than an error, so the
// workflow can fall back to the default extraction strategy.
func (d *Detector) Detect(ctx context.Context, path string) (Result, error) {
	logger := logging.WithContext(ctx, d.logger)

	if err := api.ValidateFile(path, nil); err != nil {
		return Result{}, services.Wrap(services.ErrPermanentInput, "format_detection", "validate pdf", "file is not a readable PDF", err)
	}

	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrPermanentInput, "format_detection", "count pages", "unable to determine page count", err)
	}
	if pageCount == 0 {
		return Result{Type: ledger.DocUnknown, PageCount: 0}, nil
	}

	scores, err := d.textScores(path, pageCount)
	if err != nil {
		logger.Warn("text layer unreadable, verdict unknown",
			logging.Error(err),
			logging.String("file", path),
		)
		return Result{Type: ledger.DocUnknown, PageCount: pageCount}, nil
	}

	result := verdictFromScores(scores)
	result.PageCount = pageCount
	logger.Info("format detected",
		logging.String("type", string(result.Type)),
		logging.Float64("confidence", result.Confidence),
		logging.Int("pages_analyzed", len(scores)),
		logging.Int("page_count", pageCount),
	)
	return result, nil
}

func (d *Detector) textScores(path string, pageCount int) ([]float64, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	pages := pageCount
	if pages > d.maxPages {
		pages = d.maxPages
	}

	scores := make([]float64, 0, pages)
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			scores = append(scores, 0)
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			scores = append(scores, 0)
			continue
		}
		length := len(strings.TrimSpace(text))
		score := float64(length) / float64(d.textThreshold)
		if score > 1 {
			score = 1
		}
		scores = append(scores, score)
	}
	return scores, nil
}

// verdictFromScores maps averaged per-page text scores to a document type.
// Pages carrying a substantial text layer indicate a machine-readable
// document; near-empty text layers indicate a scan. The middle band gets a
// reduced-confidence verdict rather than Unknown so mixed documents still
// route through a concrete strategy.
func verdictFromScores(scores []float64) Result {
	if len(scores) == 0 {
		return Result{Type: ledger.DocUnknown}
	}

	var sum float64
	for _, score := range scores {
		sum += score
	}
	avg := sum / float64(len(scores))

	switch {
	case avg > 0.5:
		return Result{Type: ledger.DocMachineReadable, Confidence: avg}
	case avg < 0.2:
		return Result{Type: ledger.DocScanned, Confidence: 1 - avg}
	case avg >= 0.35:
		return Result{Type: ledger.DocMachineReadable, Confidence: avg * 0.7}
	default:
		return Result{Type: ledger.DocScanned, Confidence: (1 - avg) * 0.7}
	}
}
