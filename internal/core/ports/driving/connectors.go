package driving

import (
	"context"

	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
)

// ConnectorRegistry maps URLs and service types to connectors.
type ConnectorRegistry interface {
	// Resolve returns the connector whose host table matches the URL.
	// Returns domain.ErrUnsupportedService without network access otherwise.
	Resolve(rawURL string) (driven.Connector, error)

	// Get returns the connector for a service.
	Get(service domain.ServiceType) (driven.Connector, error)

	// List returns the descriptors of all registered connectors.
	List() []domain.ConnectorDescriptor

	// CheckAccess resolves the URL and asks its connector for a grant.
	CheckAccess(ctx context.Context, rawURL string) (*domain.AccessGrant, error)
}
