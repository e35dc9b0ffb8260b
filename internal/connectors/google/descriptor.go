package google

import (
	"github.com/custodia-labs/tether/internal/core/domain"
)

// Google OAuth endpoints.
const (
	AuthURL  = "https://accounts.google.com/o/oauth2/auth"
	TokenURL = "https://oauth2.googleapis.com/token" //nolint:gosec // G101: endpoint URL
)

// DriveReadonlyScope grants read access to every file the user can see.
const DriveReadonlyScope = "https://www.googleapis.com/auth/drive.readonly"

// DriveHosts are the hosts that serve Drive and Docs editor links.
var DriveHosts = []string{"drive.google.com", "docs.google.com"}

// DriveDescriptor returns the OAuth descriptor for Google Drive.
func DriveDescriptor(clientID, clientSecret string) domain.ConnectorDescriptor {
	return domain.ConnectorDescriptor{
		Service:      domain.ServiceGoogleDrive,
		Name:         "Google Drive",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{"openid", "email", DriveReadonlyScope},
		AuthURL:      AuthURL,
		TokenURL:     TokenURL,
		Hosts:        append([]string(nil), DriveHosts...),
	}
}
