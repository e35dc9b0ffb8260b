package services

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
	"github.com/custodia-labs/tether/internal/core/ports/driving"
)

// Ensure ConnectorRegistry implements the interface.
var _ driving.ConnectorRegistry = (*ConnectorRegistry)(nil)

// hostRoute maps a host suffix to the connector serving it.
type hostRoute struct {
	suffix  string
	service domain.ServiceType
}

// ConnectorRegistry routes URLs to connectors by host suffix.
type ConnectorRegistry struct {
	mu         sync.RWMutex
	connectors map[domain.ServiceType]driven.Connector
	routes     []hostRoute
}

// NewConnectorRegistry creates a registry holding conns.
func NewConnectorRegistry(conns ...driven.Connector) *ConnectorRegistry {
	r := &ConnectorRegistry{connectors: make(map[domain.ServiceType]driven.Connector)}
	for _, c := range conns {
		r.Register(c)
	}
	return r
}

// Register adds a connector, replacing any previous one for the same service.
func (r *ConnectorRegistry) Register(c driven.Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()

	svc := c.Service()
	r.connectors[svc] = c

	routes := r.routes[:0]
	for _, rt := range r.routes {
		if rt.service != svc {
			routes = append(routes, rt)
		}
	}
	for _, h := range c.Descriptor().Hosts {
		routes = append(routes, hostRoute{suffix: strings.ToLower(h), service: svc})
	}
	// Longest suffix first so the most specific host wins.
	sort.SliceStable(routes, func(i, j int) bool { return len(routes[i].suffix) > len(routes[j].suffix) })
	r.routes = routes
}

// Resolve returns the connector whose host table matches rawURL.
// Nothing is fetched: unknown hosts fail with domain.ErrUnsupportedService.
func (r *ConnectorRegistry) Resolve(rawURL string) (driven.Connector, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not a URL", domain.ErrUnsupportedService, rawURL)
	}
	host := strings.ToLower(u.Hostname())

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rt := range r.routes {
		if host == rt.suffix || strings.HasSuffix(host, "."+rt.suffix) {
			return r.connectors[rt.service], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedService, host)
}

// Get returns the connector for service.
func (r *ConnectorRegistry) Get(service domain.ServiceType) (driven.Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[service]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedService, service)
	}
	return c, nil
}

// List returns the descriptors of all registered connectors, by service name.
func (r *ConnectorRegistry) List() []domain.ConnectorDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ConnectorDescriptor, 0, len(r.connectors))
	for _, c := range r.connectors {
		out = append(out, c.Descriptor())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Service < out[j].Service })
	return out
}

// CheckAccess resolves rawURL and asks its connector for an access grant.
func (r *ConnectorRegistry) CheckAccess(ctx context.Context, rawURL string) (*domain.AccessGrant, error) {
	c, err := r.Resolve(rawURL)
	if err != nil {
		return nil, err
	}
	return c.CheckAccess(ctx, rawURL)
}
