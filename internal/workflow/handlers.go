package workflow

import (
	"context"
	"log/slog"
	"time"

	"vellum/internal/config"
	"vellum/internal/ledger"
	"vellum/internal/services"
	"vellum/internal/services/classify"
	"vellum/internal/services/detect"
	"vellum/internal/services/extract"
	"vellum/internal/services/search"
	"vellum/internal/stage"
)

// Gateways bundles the stage collaborators handed to the Manager.
type Gateways struct {
	Detector   detect.Service
	Extractor  extract.Service
	Classifier classify.Service
	Indexer    search.Service
}

// NewGateways constructs the default production gateways from configuration.
func NewGateways(cfg *config.Config, logger *slog.Logger) (Gateways, error) {
	indexer := search.Service(search.NewDisabled())
	if cfg.Search.Enabled {
		es, err := search.NewElasticsearch(cfg, logger)
		if err != nil {
			return Gateways{}, err
		}
		indexer = es
	}
	return Gateways{
		Detector:   detect.NewDetector(cfg, logger),
		Extractor:  extract.NewExtractor(cfg, logger),
		Classifier: classify.NewKeywordClassifier(cfg, logger),
		Indexer:    indexer,
	}, nil
}

func stageHandlers(cfg *config.Config, gw Gateways) map[ledger.Stage]stage.Handler {
	return map[ledger.Stage]stage.Handler{
		ledger.StageFormatDetection: &detectionHandler{svc: gw.Detector},
		ledger.StageExtraction: &extractionHandler{
			svc:         gw.Extractor,
			defaultType: extract.StrategyForDefault(cfg.Detection.DefaultStrategy),
		},
		ledger.StageClassification: &classificationHandler{svc: gw.Classifier},
		ledger.StageIndexing:       &indexingHandler{svc: gw.Indexer},
	}
}

type detectionHandler struct {
	svc detect.Service
}

func (h *detectionHandler) Execute(ctx context.Context, entry *ledger.Entry) error {
	result, err := h.svc.Detect(ctx, entry.FilePath)
	if err != nil {
		return err
	}
	entry.DocumentType = result.Type
	entry.DetectionConfidence = result.Confidence
	if result.PageCount > 0 {
		entry.PageCount = result.PageCount
	}
	return nil
}

func (h *detectionHandler) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("format_detection")
}

type extractionHandler struct {
	svc         extract.Service
	defaultType ledger.DocumentType
}

// Execute extracts text using the strategy matching the detection verdict.
// An unknown verdict is not a failure: the configured default strategy runs
// instead and the entry is marked as a fallback extraction so downstream
// consumers can weigh its quality.
func (h *extractionHandler) Execute(ctx context.Context, entry *ledger.Entry) error {
	docType := entry.DocumentType
	if docType != ledger.DocMachineReadable && docType != ledger.DocScanned {
		docType = h.defaultType
		entry.ExtractionFallback = true
	}
	result, err := h.svc.Extract(ctx, entry.FilePath, docType)
	if err != nil {
		return err
	}
	entry.ExtractedText = result.Text
	if result.PageCount > 0 {
		entry.PageCount = result.PageCount
	}
	return nil
}

func (h *extractionHandler) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("extraction")
}

type classificationHandler struct {
	svc classify.Service
}

func (h *classificationHandler) Execute(ctx context.Context, entry *ledger.Entry) error {
	result, err := h.svc.Classify(ctx, entry.ExtractedText)
	if err != nil {
		return err
	}
	entry.Category = result.Category
	entry.CategoryConfidence = result.Confidence
	return nil
}

func (h *classificationHandler) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("classification")
}

type indexingHandler struct {
	svc search.Service
}

func (h *indexingHandler) Execute(ctx context.Context, entry *ledger.Entry) error {
	ref, err := h.svc.Index(ctx, search.Document{
		EntryID:            entry.ID,
		FileName:           entry.FileName,
		FilePath:           entry.FilePath,
		FileSize:           entry.FileSize,
		PageCount:          entry.PageCount,
		DocumentType:       string(entry.DocumentType),
		Category:           entry.Category,
		CategoryConfidence: entry.CategoryConfidence,
		Text:               entry.ExtractedText,
		IndexedAt:          time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	entry.IndexRef = ref
	return nil
}

func (h *indexingHandler) HealthCheck(ctx context.Context) stage.Health {
	if err := h.svc.Ping(ctx); err != nil {
		return stage.Unhealthy("indexing", services.Details(err))
	}
	return stage.Healthy("indexing")
}
