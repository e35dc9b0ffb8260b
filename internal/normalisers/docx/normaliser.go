package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// maxPartBytes bounds the decompressed size of a single XML part.
const maxPartBytes = 32 << 20

// Normaliser handles Word (DOCX) documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".docx"}
}

// Normalise extracts paragraph text from word/document.xml. A title in
// docProps/core.xml is emitted as the first line.
func (n *Normaliser) Normalise(ctx context.Context, path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: not a docx archive: %w", domain.ErrInvalidInput, err)
	}
	defer zr.Close()

	body, ok := findPart(&zr.Reader, "word/document.xml")
	if !ok {
		return "", fmt.Errorf("%w: missing word/document.xml", domain.ErrInvalidInput)
	}
	text, err := readPart(ctx, body, documentText)
	if err != nil {
		return "", err
	}

	if core, ok := findPart(&zr.Reader, "docProps/core.xml"); ok {
		title, err := readPart(ctx, core, coreTitle)
		if err == nil && title != "" && !strings.HasPrefix(text, title) {
			text = title + "\n\n" + text
		}
	}
	return text, nil
}

func findPart(r *zip.Reader, name string) (*zip.File, bool) {
	for _, f := range r.File {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

func readPart(ctx context.Context, f *zip.File, parse func(context.Context, *xml.Decoder) (string, error)) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, f.Name, err)
	}
	defer rc.Close()
	return parse(ctx, xml.NewDecoder(io.LimitReader(rc, maxPartBytes)))
}

// documentText walks the WordprocessingML token stream. Text runs (w:t) are
// concatenated, w:tab and w:br become whitespace, and each paragraph (w:p)
// ends a line. Tables are read cell by cell since their cells hold paragraphs.
func documentText(ctx context.Context, dec *xml.Decoder) (string, error) {
	var (
		out    strings.Builder
		line   strings.Builder
		inText bool
	)
	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			out.WriteString(s)
			out.WriteByte('\n')
		}
		line.Reset()
	}

	for n := 0; ; n++ {
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return "", err
			}
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: document.xml: %w", domain.ErrInvalidInput, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				line.WriteByte('\t')
			case "br", "cr":
				line.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}
	flush()
	return strings.TrimSpace(out.String()), nil
}

// coreTitle returns dc:title from docProps/core.xml.
func coreTitle(_ context.Context, dec *xml.Decoder) (string, error) {
	var core struct {
		Title string `xml:"title"`
	}
	if err := dec.Decode(&core); err != nil {
		return "", err
	}
	return strings.TrimSpace(core.Title), nil
}
