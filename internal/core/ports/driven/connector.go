package driven

import (
	"context"

	"github.com/custodia-labs/tether/internal/core/domain"
)

// Connector authenticates against a cloud storage provider and reads remote files.
// Connectors are stateless between calls: every operation derives its own HTTP
// client and token source from the immutable descriptor.
type Connector interface {
	// Service returns the provider this connector serves.
	Service() domain.ServiceType

	// Descriptor returns the static OAuth configuration.
	Descriptor() domain.ConnectorDescriptor

	// Authenticate runs the interactive authorization flow and stores or
	// updates a credential named name.
	Authenticate(ctx context.Context, name string) (*domain.AuthResult, error)

	// CheckAccess returns the first stored credential able to read the file.
	// Returns domain.ErrUnsupportedService if the URL is not a file link for
	// this provider, and domain.ErrAccessDenied if no credential works.
	CheckAccess(ctx context.Context, url string) (*domain.AccessGrant, error)

	// Download streams the file to destPath, adjusting the extension when the
	// provider exports it to another format. Returns the final path.
	Download(ctx context.Context, url, destPath string) (string, error)
}
