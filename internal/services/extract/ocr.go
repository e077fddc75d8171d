package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/text/unicode/norm"

	"vellum/internal/config"
	"vellum/internal/services"
)

// OCRStrategy rasterizes PDF pages with pdftoppm and runs tesseract over
// each page image.
type OCRStrategy struct {
	pdftoppmBin string
	dpi         int
	languages   []string
}

// NewOCRStrategy constructs the OCR extraction strategy from configuration.
func NewOCRStrategy(cfg *config.Config) *OCRStrategy {
	return &OCRStrategy{
		pdftoppmBin: cfg.OCR.PdftoppmBin,
		dpi:         cfg.OCR.DPI,
		languages:   strings.Split(cfg.OCR.Languages, "+"),
	}
}

// Extract rasterizes the document and OCRs page images in order.
func (s *OCRStrategy) Extract(ctx context.Context, path string) (Result, error) {
	pages, cleanup, err := s.rasterize(ctx, path)
	if err != nil {
		return Result{}, err
	}
	defer cleanup()

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(s.languages...); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "extraction", "set ocr language",
			fmt.Sprintf("tesseract language data missing for %s", strings.Join(s.languages, "+")), err)
	}

	var builder strings.Builder
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := client.SetImage(page); err != nil {
			return Result{}, services.Wrap(services.ErrTransient, "extraction", "load page image", page, err)
		}
		text, err := client.Text()
		if err != nil {
			return Result{}, services.Wrap(services.ErrTransient, "extraction", "ocr page", page, err)
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	return Result{
		Text:      norm.NFC.String(builder.String()),
		PageCount: len(pages),
	}, nil
}

// rasterize renders each page to a PNG in a temp directory and returns the
// page image paths in page order plus a cleanup func.
func (s *OCRStrategy) rasterize(ctx context.Context, path string) ([]string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "vellum-ocr-*")
	if err != nil {
		return nil, nil, services.Wrap(services.ErrTransient, "extraction", "create temp dir", "", err)
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, s.pdftoppmBin, "-png", "-r", strconv.Itoa(s.dpi), path, prefix)
	if output, err := cmd.CombinedOutput(); err != nil {
		cleanup()
		if errors.Is(err, exec.ErrNotFound) {
			return nil, nil, services.Wrap(services.ErrConfiguration, "extraction", "rasterize",
				fmt.Sprintf("%s not found on PATH", s.pdftoppmBin), err)
		}
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, services.Wrap(services.ErrPermanentInput, "extraction", "rasterize",
			strings.TrimSpace(string(output)), err)
	}

	pages, err := filepath.Glob(prefix + "*.png")
	if err != nil || len(pages) == 0 {
		cleanup()
		return nil, nil, services.Wrap(services.ErrPermanentInput, "extraction", "rasterize", "no pages produced", err)
	}
	sort.Strings(pages)
	return pages, cleanup, nil
}
