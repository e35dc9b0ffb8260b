package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
	"github.com/custodia-labs/tether/internal/logger"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// DefaultMaxPages bounds how many pages are read for a caption.
const DefaultMaxPages = 20

// Normaliser handles PDF documents.
//
// Files are validated with pdfcpu in relaxed mode before text extraction, so
// truncated downloads are rejected instead of yielding partial text.
type Normaliser struct {
	maxPages int
}

// New creates a PDF normaliser reading at most maxPages pages.
// maxPages <= 0 uses DefaultMaxPages.
func New(maxPages int) *Normaliser {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Normaliser{maxPages: maxPages}
}

// Extensions returns the extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".pdf"}
}

// Normalise extracts the text of the first pages of the PDF at path.
func (n *Normaliser) Normalise(ctx context.Context, path string) (text string, err error) {
	if err := Validate(path); err != nil {
		return "", err
	}

	// The extractor panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("pdf text extraction panicked", "path", path, "panic", r)
			text, err = "", fmt.Errorf("%w: unreadable pdf content", domain.ErrInvalidInput)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	defer f.Close()

	var b strings.Builder
	pages := min(r.NumPage(), n.maxPages)
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			logger.Debug("skipping unreadable pdf page", "page", i, "error", err)
			continue
		}
		b.WriteString(strings.TrimSpace(content))
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String()), nil
}

// Validate checks the file is a structurally sound PDF.
func Validate(path string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return fmt.Errorf("%w: invalid pdf: %w", domain.ErrInvalidInput, err)
	}
	return nil
}
