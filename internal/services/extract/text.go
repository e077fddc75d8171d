package extract

import (
	"context"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"

	"vellum/internal/services"
)

// TextStrategy reads the embedded text layer of a machine-readable PDF.
type TextStrategy struct{}

// NewTextStrategy constructs the embedded-text extraction strategy.
func NewTextStrategy() *TextStrategy {
	return &TextStrategy{}
}

// Extract walks every page and concatenates its plain text. Text is NFC
// normalized so downstream keyword matching sees one canonical form.
func (s *TextStrategy) Extract(ctx context.Context, path string) (Result, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrPermanentInput, "extraction", "open pdf", "unable to parse PDF structure", err)
	}
	defer file.Close()

	pageCount := reader.NumPage()
	var builder strings.Builder
	for i := 1; i <= pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single undecodable page should not sink a document that
			// otherwise has a text layer.
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	return Result{
		Text:      norm.NFC.String(builder.String()),
		PageCount: pageCount,
	}, nil
}
