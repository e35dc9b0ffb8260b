package google

import (
	"context"
	"net/http"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// NewDriveService creates a Drive API client that sends requests through an
// already-authorised HTTP client. A non-empty endpoint overrides the API base
// URL.
func NewDriveService(ctx context.Context, client *http.Client, endpoint string) (*drive.Service, error) {
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return drive.NewService(ctx, opts...)
}
