package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// MaxReadBytes bounds how much of a text file is read.
const MaxReadBytes = 1 << 20

// Normaliser handles plain text and CSV files.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".txt", ".csv", ".log"}
}

// Normalise reads the file as UTF-8 text. Files containing NUL bytes are
// treated as binary and rejected.
func (n *Normaliser) Normalise(_ context.Context, path string) (string, error) {
	content, err := ReadText(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// ReadText reads up to MaxReadBytes of path as text, replacing invalid
// UTF-8 sequences.
func ReadText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxReadBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return "", fmt.Errorf("%w: binary content", domain.ErrInvalidInput)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	return strings.ToValidUTF8(string(data), "�"), nil
}
