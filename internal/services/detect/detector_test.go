package detect

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vellum/internal/config"
	"vellum/internal/ledger"
	"vellum/internal/services"
)

func TestVerdictFromScores(t *testing.T) {
	cases := []struct {
		name   string
		scores []float64
		want   ledger.DocumentType
	}{
		{"no pages", nil, ledger.DocUnknown},
		{"dense text", []float64{1, 0.9, 0.8}, ledger.DocMachineReadable},
		{"empty text layer", []float64{0, 0.05, 0.1}, ledger.DocScanned},
		{"upper middle band", []float64{0.4, 0.4, 0.4}, ledger.DocMachineReadable},
		{"lower middle band", []float64{0.25, 0.25, 0.25}, ledger.DocScanned},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := verdictFromScores(tc.scores)
			if result.Type != tc.want {
				t.Fatalf("verdict = %s, want %s", result.Type, tc.want)
			}
			if tc.want != ledger.DocUnknown && (result.Confidence <= 0 || result.Confidence > 1) {
				t.Fatalf("confidence %f out of range", result.Confidence)
			}
		})
	}
}

func TestVerdictConfidenceReducedInMiddleBand(t *testing.T) {
	clear := verdictFromScores([]float64{0.9, 0.9})
	ambiguous := verdictFromScores([]float64{0.4, 0.4})
	if ambiguous.Confidence >= clear.Confidence {
		t.Fatalf("ambiguous verdict should carry less confidence: %f >= %f",
			ambiguous.Confidence, clear.Confidence)
	}
}

func TestDetectRejectsNonPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.pdf")
	if err := os.WriteFile(path, []byte("this is not a pdf"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg := config.Default()
	detector := NewDetector(&cfg, nil)

	_, err := detector.Detect(context.Background(), path)
	if err == nil {
		t.Fatal("expected error for non-PDF input")
	}
	if !errors.Is(err, services.ErrPermanentInput) {
		t.Fatalf("expected permanent input error, got %v", err)
	}
	if services.IsTransient(err) {
		t.Fatal("corrupt input must not be retried")
	}
}

func TestDetectRejectsMissingFile(t *testing.T) {
	cfg := config.Default()
	detector := NewDetector(&cfg, nil)

	_, err := detector.Detect(context.Background(), filepath.Join(t.TempDir(), "absent.pdf"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
