package driven

import "context"

// Summarizer produces a short searchable caption for a local file.
type Summarizer interface {
	// Summarize reads the file at path and returns a caption.
	// Returns domain.ErrUnsupportedFileType for formats it cannot read.
	Summarize(ctx context.Context, path string) (string, error)

	// Supports reports whether the file extension is readable.
	Supports(path string) bool
}
