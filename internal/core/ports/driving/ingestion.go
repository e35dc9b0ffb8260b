package driving

import (
	"context"

	"github.com/custodia-labs/tether/internal/core/domain"
)

// IngestionService runs file acquisition in the background.
// Producers enqueue jobs without blocking; a single worker executes them in
// priority order.
type IngestionService interface {
	// Start launches the worker. Calling Start twice is a no-op.
	Start(ctx context.Context)

	// Stop terminates the worker after the current job finishes.
	Stop()

	// AddFile enqueues an AddFile job and returns its ID.
	AddFile(url string, folderID int64, description string, priority int) (string, error)

	// Summarize enqueues a Summarize job for an existing file and returns its ID.
	Summarize(fileID int64, priority int) (string, error)

	// Enqueue submits an arbitrary job and returns its ID.
	Enqueue(job domain.Job) (string, error)

	// Pending returns the number of queued jobs not yet started.
	Pending() int

	// WaitIdle blocks until the queue is empty and no job is running.
	WaitIdle(ctx context.Context) error
}
