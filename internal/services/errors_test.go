package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"vellum/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	err := services.Wrap(services.ErrPermanentInput, "format_detection", "validate", "corrupt xref table", nil)
	if !errors.Is(err, services.ErrPermanentInput) {
		t.Fatalf("expected permanent input marker, got %v", err)
	}
	if services.IsTransient(err) {
		t.Fatal("permanent input must not be transient")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := services.Wrap(services.ErrTransient, "indexing", "index", "search backend unavailable", cause)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause preserved, got %v", err)
	}
}

func TestIsTransientDefaultsToRetry(t *testing.T) {
	// Unclassified errors retry; only explicit permanent and configuration
	// markers opt out.
	if !services.IsTransient(errors.New("mystery failure")) {
		t.Fatal("unclassified errors should be transient")
	}
	if !services.IsTransient(context.DeadlineExceeded) {
		t.Fatal("deadline expiry should be transient")
	}
	if services.IsTransient(nil) {
		t.Fatal("nil is not an error")
	}
	if services.IsTransient(services.Wrap(services.ErrConfiguration, "indexing", "ping", "bad url", nil)) {
		t.Fatal("configuration errors should not retry")
	}
}

func TestFailureKind(t *testing.T) {
	cases := []struct {
		err  error
		kind string
	}{
		{services.Wrap(services.ErrPermanentInput, "s", "op", "m", nil), services.KindPermanentFailure},
		{services.Wrap(services.ErrConfiguration, "s", "op", "m", nil), services.KindConfiguration},
		{services.Wrap(services.ErrTransient, "s", "op", "m", nil), services.KindTransient},
		{errors.New("bare"), services.KindTransient},
	}
	for _, tc := range cases {
		if got := services.FailureKind(tc.err); got != tc.kind {
			t.Fatalf("FailureKind(%v) = %s, want %s", tc.err, got, tc.kind)
		}
	}
}

func TestDetailsStripsMarkerPrefix(t *testing.T) {
	err := services.Wrap(services.ErrTransient, "extraction", "ocr", "engine busy", nil)
	detail := services.Details(err)
	if detail != "extraction: ocr: engine busy" {
		t.Fatalf("unexpected detail %q", detail)
	}
	if services.Details(nil) != "" {
		t.Fatal("nil error should have empty detail")
	}
}
