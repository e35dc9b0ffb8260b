// Package drive implements the Google Drive connector.
//
// Native Workspace files are exported on download: Docs to .docx, Slides and
// Drawings to .pdf, Sheets to .csv. Everything else is fetched as stored.
package drive

import (
	"context"
	"fmt"
	"net/http"

	"github.com/custodia-labs/tether/internal/connectors"
	"github.com/custodia-labs/tether/internal/connectors/google"
	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
	"github.com/custodia-labs/tether/internal/core/ports/driving"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Config configures the Drive connector.
type Config struct {
	// Descriptor is the OAuth configuration, usually google.DriveDescriptor.
	Descriptor domain.ConnectorDescriptor
	// Vault holds the stored credentials.
	Vault driving.CredentialVault
	// Auth runs the interactive flow. Nil uses the default loopback settings.
	Auth *connectors.AuthFlow
	// HTTPClient is the base client for token refresh and API calls.
	HTTPClient *http.Client
	// Endpoint overrides the Drive API base URL.
	Endpoint string
}

// Connector reads files from Google Drive.
type Connector struct {
	desc     domain.ConnectorDescriptor
	vault    driving.CredentialVault
	auth     *connectors.AuthFlow
	client   *http.Client
	endpoint string
}

// New creates a Drive connector.
func New(cfg Config) *Connector {
	auth := cfg.Auth
	if auth == nil {
		auth = connectors.NewAuthFlow(cfg.Vault, connectors.DefaultAuthFlowConfig())
	}
	limiter := connectors.NewRateLimiter(domain.ServiceGoogleDrive)
	return &Connector{
		desc:     cfg.Descriptor,
		vault:    cfg.Vault,
		auth:     auth,
		client:   limiter.Client(cfg.HTTPClient),
		endpoint: cfg.Endpoint,
	}
}

// Service returns domain.ServiceGoogleDrive.
func (c *Connector) Service() domain.ServiceType { return domain.ServiceGoogleDrive }

// Descriptor returns the OAuth configuration.
func (c *Connector) Descriptor() domain.ConnectorDescriptor { return c.desc }

// Authenticate runs the loopback authorization flow.
func (c *Connector) Authenticate(ctx context.Context, name string) (*domain.AuthResult, error) {
	return c.auth.Authenticate(ctx, c.desc, name)
}

// CheckAccess finds the first stored Google account that can read the file.
func (c *Connector) CheckAccess(ctx context.Context, url string) (*domain.AccessGrant, error) {
	fileID, ok := ParseFileID(url)
	if !ok {
		return nil, fmt.Errorf("%w: not a Google Drive file link", domain.ErrUnsupportedService)
	}

	grant, err := connectors.FindGrant(ctx, c.vault, c.desc, c.client, c.probe(fileID))
	if err != nil {
		return nil, err
	}
	if grant.File.MIMEType == MimeTypeFolder {
		return nil, fmt.Errorf("%w: link points to a folder", domain.ErrUnsupportedFileType)
	}
	return grant, nil
}

func (c *Connector) probe(fileID string) connectors.Probe {
	return func(ctx context.Context, client *http.Client) (*domain.FileMetadata, error) {
		svc, err := google.NewDriveService(ctx, client, c.endpoint)
		if err != nil {
			return nil, err
		}
		f, err := fetchMetadata(ctx, svc, fileID)
		if err != nil {
			return nil, google.ProbeError(err)
		}
		return toMetadata(f), nil
	}
}

// Download streams the file to destPath, exporting native Workspace files.
// The returned path carries the extension of the downloaded format.
func (c *Connector) Download(ctx context.Context, url, destPath string) (string, error) {
	grant, err := c.CheckAccess(ctx, url)
	if err != nil {
		return "", err
	}
	if err := connectors.CheckSize(grant.File.Size); err != nil {
		return "", err
	}

	svc, err := google.NewDriveService(ctx, connectors.BearerClient(ctx, c.client, grant.AccessToken), c.endpoint)
	if err != nil {
		return "", err
	}
	resp, ext, err := openContent(ctx, svc, &grant.File)
	if err != nil {
		return "", err
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
