package connectors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/tether/internal/core/domain"
)

// StreamChunkSize is the copy buffer used for downloads.
const StreamChunkSize = 32 << 10

// CheckSize rejects files larger than domain.MaxDownloadSize.
func CheckSize(size int64) error {
	if size > domain.MaxDownloadSize {
		return fmt.Errorf("%w: %d bytes (limit %d)", domain.ErrFileTooLarge, size, domain.MaxDownloadSize)
	}
	return nil
}

// WithExtension replaces the extension of path with ext. An empty ext
// leaves path unchanged.
func WithExtension(path, ext string) string {
	if ext == "" {
		return path
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// StreamToFile copies r into a new file at dest in StreamChunkSize chunks.
// The copy stops with domain.ErrFileTooLarge once it passes
// domain.MaxDownloadSize, and the partial file is removed on any failure.
func StreamToFile(ctx context.Context, r io.Reader, dest string) (written int64, err error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0700); err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err)
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", domain.ErrDownloadFailed, cerr)
		}
		if err != nil {
			_ = os.Remove(dest)
		}
	}()

	limited := io.LimitReader(&ctxReader{ctx: ctx, r: r}, domain.MaxDownloadSize+1)
	written, err = copyChunks(f, limited)
	switch {
	case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		return written, err
	case err != nil:
		return written, fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err)
	case written > domain.MaxDownloadSize:
		return written, fmt.Errorf("%w: stream exceeded %d bytes", domain.ErrFileTooLarge, domain.MaxDownloadSize)
	}
	return written, nil
}

// copyChunks copies src to dst through a StreamChunkSize buffer. The
// wrappers hide ReadFrom and WriteTo, which would bypass the buffer.
func copyChunks(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, StreamChunkSize)
	return io.CopyBuffer(struct{ io.Writer }{dst}, struct{ io.Reader }{src}, buf)
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
