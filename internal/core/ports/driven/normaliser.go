package driven

import "context"

// Normaliser extracts plain text from a downloaded file so it can be
// captioned. Each normaliser handles a fixed set of file extensions.
type Normaliser interface {
	// Extensions returns the lower-case extensions handled, with leading dot.
	Extensions() []string

	// Normalise returns the text content of the file at path.
	// Returns domain.ErrInvalidInput when the file is not a valid instance
	// of its format.
	Normalise(ctx context.Context, path string) (string, error)
}
