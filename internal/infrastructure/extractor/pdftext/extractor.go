package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// maxTextBytes caps extraction so a pathological document cannot blow up
// memory; the tail of oversized documents is dropped.
const maxTextBytes = 50 * 1024

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, content []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}

	pageCount := reader.NumPage()
	var builder strings.Builder

	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			slog.Warn("pdf_page_extract_failed", "page", i, "error", err)
			continue
		}

		builder.WriteString(text)
		builder.WriteString("\n")

		if builder.Len() > maxTextBytes {
			slog.Warn("pdf_text_truncated", "pages_read", i, "page_count", pageCount)
			break
		}
	}

	return strings.TrimSpace(builder.String()), pageCount, nil
}
