package classify_test

import (
	"context"
	"testing"

	"vellum/internal/config"
	"vellum/internal/services/classify"
)

func newClassifier(t *testing.T, rules map[string][]string) *classify.KeywordClassifier {
	t.Helper()
	cfg := config.Default()
	if rules != nil {
		cfg.Classification.Rules = rules
	}
	return classify.NewKeywordClassifier(&cfg, nil)
}

func TestClassifyMatchesKeywords(t *testing.T) {
	classifier := newClassifier(t, nil)

	result, err := classifier.Classify(context.Background(), "INVOICE NUMBER 42\nAmount Due: $13.37")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Category != "invoice" {
		t.Fatalf("expected invoice, got %q", result.Category)
	}
	if result.Confidence <= 0.5 {
		t.Fatalf("expected confidence above base, got %f", result.Confidence)
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	classifier := newClassifier(t, map[string][]string{
		"report": {"Executive Summary"},
	})

	result, err := classifier.Classify(context.Background(), "...the executive summary follows...")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Category != "report" {
		t.Fatalf("expected report, got %q", result.Category)
	}
}

func TestClassifyNoMatchYieldsUnknown(t *testing.T) {
	classifier := newClassifier(t, nil)

	result, err := classifier.Classify(context.Background(), "completely unrelated prose")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Category != classify.UnknownCategory {
		t.Fatalf("expected unknown, got %q", result.Category)
	}
	if result.Confidence != 0 {
		t.Fatalf("expected zero confidence, got %f", result.Confidence)
	}
}

func TestClassifyEmptyText(t *testing.T) {
	classifier := newClassifier(t, nil)

	result, err := classifier.Classify(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Category != classify.UnknownCategory {
		t.Fatalf("expected unknown for empty text, got %q", result.Category)
	}
}

func TestClassifyMostHitsWins(t *testing.T) {
	classifier := newClassifier(t, map[string][]string{
		"alpha": {"shared"},
		"beta":  {"shared", "extra"},
	})

	result, err := classifier.Classify(context.Background(), "shared shared extra")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Category != "beta" {
		t.Fatalf("expected beta to win on hits, got %q", result.Category)
	}
}

func TestClassifyTieIsDeterministic(t *testing.T) {
	rules := map[string][]string{
		"zeta":  {"token"},
		"alpha": {"token"},
	}
	for i := 0; i < 5; i++ {
		classifier := newClassifier(t, rules)
		result, err := classifier.Classify(context.Background(), "token")
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if result.Category != "alpha" {
			t.Fatalf("expected alphabetical tiebreak to pick alpha, got %q", result.Category)
		}
	}
}

func TestConfidenceIsCapped(t *testing.T) {
	classifier := newClassifier(t, map[string][]string{
		"dense": {"word"},
	})

	text := ""
	for i := 0; i < 50; i++ {
		text += "word "
	}
	result, err := classifier.Classify(context.Background(), text)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Confidence > 0.95 {
		t.Fatalf("expected confidence capped at 0.95, got %f", result.Confidence)
	}
}
