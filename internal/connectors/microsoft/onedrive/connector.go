// Package onedrive implements the OneDrive and SharePoint connector.
//
// Files are addressed by their sharing link through the Graph /shares
// endpoint, so links shared from other tenants work as long as one stored
// account can open them. Office formats the summarizer cannot read are
// converted to PDF by Graph on download.
package onedrive

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/tether/internal/connectors"
	"github.com/custodia-labs/tether/internal/connectors/microsoft"
	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
	"github.com/custodia-labs/tether/internal/core/ports/driving"
)

// Ensure SharedFileConnector implements the interface.
var _ driven.Connector = (*SharedFileConnector)(nil)

// Config configures the OneDrive connector.
type Config struct {
	// Descriptor is the OAuth configuration, usually microsoft.OneDriveDescriptor.
	Descriptor domain.ConnectorDescriptor
	// Vault holds the stored credentials.
	Vault driving.CredentialVault
	// Auth runs the interactive flow. Nil uses the default loopback settings.
	Auth *connectors.AuthFlow
	// HTTPClient is the base client for token refresh and Graph calls.
	HTTPClient *http.Client
	// GraphURL overrides DefaultGraphURL.
	GraphURL string
}

// SharedFileConnector reads files behind OneDrive and SharePoint sharing links.
type SharedFileConnector struct {
	desc     domain.ConnectorDescriptor
	vault    driving.CredentialVault
	auth     *connectors.AuthFlow
	client   *http.Client
	graphURL string
}

// New creates a OneDrive connector.
func New(cfg Config) *SharedFileConnector {
	auth := cfg.Auth
	if auth == nil {
		auth = connectors.NewAuthFlow(cfg.Vault, connectors.DefaultAuthFlowConfig())
	}
	graphURL := strings.TrimSuffix(cfg.GraphURL, "/")
	if graphURL == "" {
		graphURL = DefaultGraphURL
	}
	limiter := connectors.NewRateLimiter(domain.ServiceOneDrive)
	return &SharedFileConnector{
		desc:     cfg.Descriptor,
		vault:    cfg.Vault,
		auth:     auth,
		client:   limiter.Client(cfg.HTTPClient),
		graphURL: graphURL,
	}
}

// Service returns domain.ServiceOneDrive.
func (c *SharedFileConnector) Service() domain.ServiceType { return domain.ServiceOneDrive }

// Descriptor returns the OAuth configuration.
func (c *SharedFileConnector) Descriptor() domain.ConnectorDescriptor { return c.desc }

// Authenticate runs the loopback authorization flow.
func (c *SharedFileConnector) Authenticate(ctx context.Context, name string) (*domain.AuthResult, error) {
	return c.auth.Authenticate(ctx, c.desc, name)
}

// CheckAccess finds the first stored Microsoft account that can open the link.
func (c *SharedFileConnector) CheckAccess(ctx context.Context, url string) (*domain.AccessGrant, error) {
	if !IsShareLink(url) {
		return nil, fmt.Errorf("%w: not a OneDrive or SharePoint link", domain.ErrUnsupportedService)
	}
	shareID := ShareID(url)

	grant, err := connectors.FindGrant(ctx, c.vault, c.desc, c.client,
		func(ctx context.Context, client *http.Client) (*domain.FileMetadata, error) {
			g := &graphClient{http: client, base: c.graphURL}
			it, err := g.item(ctx, shareID)
			if err != nil {
				return nil, microsoft.ProbeError(err)
			}
			if it.Folder != nil {
				return nil, fmt.Errorf("%w: link points to a folder", domain.ErrUnsupportedFileType)
			}
			return it.toMetadata(), nil
		})
	if err != nil {
		return nil, err
	}
	return grant, nil
}

// Download streams the shared file to destPath. Office formats the
// summarizer cannot read are fetched as PDF.
func (c *SharedFileConnector) Download(ctx context.Context, url, destPath string) (string, error) {
	grant, err := c.CheckAccess(ctx, url)
	if err != nil {
		return "", err
	}
	if err := connectors.CheckSize(grant.File.Size); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(grant.File.Name))
	if grant.File.Exportable {
		ext = ".pdf"
	}

	g := &graphClient{http: connectors.BearerClient(ctx, c.client, grant.AccessToken), base: c.graphURL}
	loc, resp, err := g.contentLocation(ctx, ShareID(url), grant.File.Exportable)
	if err != nil {
		return "", microsoft.DownloadError(err)
	}
	if resp == nil {
		if resp, err = c.fetch(ctx, loc); err != nil {
			return "", microsoft.DownloadError(err)
		}
	}
	defer resp.Body.Close()

	if err := connectors.CheckSize(resp.ContentLength); err != nil {
		return "", err
	}

	final := connectors.WithExtension(destPath, ext)
	if _, err := connectors.StreamToFile(ctx, resp.Body, final); err != nil {
		return "", err
	}
	return final, nil
}

// fetch downloads a pre-authenticated URL without the bearer token.
func (c *SharedFileConnector) fetch(ctx context.Context, location string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if err := microsoft.CheckResponse(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}
