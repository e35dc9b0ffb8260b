package domain

import "time"

// MaxDownloadSize is the largest remote file Tether will fetch (512 MiB).
const MaxDownloadSize int64 = 512 << 20

// ConnectorDescriptor is the static OAuth configuration of a provider.
// Descriptors are built once at startup and never mutated.
type ConnectorDescriptor struct {
	// Service identifies the provider.
	Service ServiceType
	// Name is the display name.
	Name string
	// ClientID is the OAuth application identifier.
	ClientID string
	// ClientSecret is the OAuth application secret.
	ClientSecret string //nolint:gosec // G117: field name, not a credential
	// Scopes requested during authorization.
	Scopes []string
	// AuthURL is the authorization endpoint.
	AuthURL string
	// TokenURL is the token endpoint.
	TokenURL string
	// Hosts are the URL host suffixes this provider serves.
	Hosts []string
}

// FileMetadata describes a remote file as reported by its provider.
type FileMetadata struct {
	ID           string
	Name         string
	MIMEType     string
	Size         int64
	WebLink      string
	ModifiedTime time.Time
	// Exportable is set when the provider stores the file in a native format
	// that must be converted server-side before download.
	Exportable bool
}

// AccessGrant records which credential reached a remote file.
type AccessGrant struct {
	// CredentialID is the vault record that succeeded.
	CredentialID int64
	// CredentialName is its label, for display.
	CredentialName string
	// AccessToken is a short-lived bearer token minted from the refresh token.
	AccessToken string //nolint:gosec // G117: field name, not a credential
	// File is the metadata returned by the provider.
	File FileMetadata
}
