package microsoft

import (
	"fmt"

	"github.com/custodia-labs/tether/internal/core/domain"
)

// AuthorityHost is the Microsoft identity platform.
const AuthorityHost = "https://login.microsoftonline.com"

// DefaultTenant accepts both work/school and personal Microsoft accounts.
const DefaultTenant = "common"

// FilesReadAllScope grants read access to every file the user can reach,
// including links shared from other tenants.
const FilesReadAllScope = "Files.Read.All"

// OneDriveHosts are the host suffixes that serve OneDrive and SharePoint links.
var OneDriveHosts = []string{"1drv.ms", "onedrive.live.com", "sharepoint.com"}

// AuthorizeURL returns the v2.0 authorize endpoint for tenant.
func AuthorizeURL(tenant string) string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/authorize", AuthorityHost, orDefault(tenant))
}

// TokenURL returns the v2.0 token endpoint for tenant.
func TokenURL(tenant string) string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", AuthorityHost, orDefault(tenant))
}

// OneDriveDescriptor returns the OAuth descriptor for OneDrive and SharePoint.
func OneDriveDescriptor(clientID, clientSecret, tenant string) domain.ConnectorDescriptor {
	return domain.ConnectorDescriptor{
		Service:      domain.ServiceOneDrive,
		Name:         "OneDrive",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{"openid", "profile", "email", "offline_access", FilesReadAllScope},
		AuthURL:      AuthorizeURL(tenant),
		TokenURL:     TokenURL(tenant),
		Hosts:        append([]string(nil), OneDriveHosts...),
	}
}

func orDefault(tenant string) string {
	if tenant == "" {
		return DefaultTenant
	}
	return tenant
}
