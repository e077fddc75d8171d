package classify

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"vellum/internal/config"
	"vellum/internal/logging"
)

// UnknownCategory is the verdict when no rule matches.
const UnknownCategory = "unknown"

// Result is a document category verdict with a confidence signal.
type Result struct {
	Category   string
	Confidence float64
}

// Service is the document classification gateway contract.
type Service interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// KeywordClassifier assigns categories by keyword rules. Categories are
// evaluated in sorted name order so results are deterministic; the category
// with the most keyword hits wins.
type KeywordClassifier struct {
	categories []string
	rules      map[string][]string
	folder     cases.Caser
	logger     *slog.Logger
}

// NewKeywordClassifier constructs a classifier from configured rules.
func NewKeywordClassifier(cfg *config.Config, logger *slog.Logger) *KeywordClassifier {
	if logger == nil {
		logger = logging.NewNop()
	}

	folder := cases.Fold()
	rules := make(map[string][]string, len(cfg.Classification.Rules))
	categories := make([]string, 0, len(cfg.Classification.Rules))
	for category, keywords := range cfg.Classification.Rules {
		folded := make([]string, 0, len(keywords))
		for _, keyword := range keywords {
			keyword = strings.TrimSpace(keyword)
			if keyword == "" {
				continue
			}
			folded = append(folded, folder.String(keyword))
		}
		if len(folded) == 0 {
			continue
		}
		rules[category] = folded
		categories = append(categories, category)
	}
	sort.Strings(categories)

	return &KeywordClassifier{
		categories: categories,
		rules:      rules,
		folder:     cases.Fold(),
		logger:     logger.With(logging.String(logging.FieldComponent, "classify")),
	}
}

// Classify scores the text against every category's keywords.
func (c *KeywordClassifier) Classify(ctx context.Context, text string) (Result, error) {
	folded := c.folder.String(text)

	best := Result{Category: UnknownCategory}
	bestHits := 0
	for _, category := range c.categories {
		hits := 0
		for _, keyword := range c.rules[category] {
			hits += strings.Count(folded, keyword)
		}
		if hits > bestHits {
			bestHits = hits
			best = Result{Category: category, Confidence: confidenceForHits(hits)}
		}
	}

	logging.WithContext(ctx, c.logger).Debug("document classified",
		logging.String("category", best.Category),
		logging.Float64("confidence", best.Confidence),
		logging.Int("keyword_hits", bestHits),
	)
	return best, nil
}

// confidenceForHits grows with match count and saturates below certainty;
// keyword matching is a heuristic, never proof.
func confidenceForHits(hits int) float64 {
	confidence := 0.5 + 0.1*float64(hits)
	if confidence > 0.95 {
		return 0.95
	}
	return confidence
}
