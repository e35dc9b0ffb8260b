package domain

import "time"

// ServiceType identifies a cloud storage provider.
// The value is persisted in the credentials table.
type ServiceType string

const (
	// ServiceGoogleDrive is Google Drive, including Docs, Sheets and Slides.
	ServiceGoogleDrive ServiceType = "Google Drive"

	// ServiceOneDrive is OneDrive and SharePoint sharing links.
	ServiceOneDrive ServiceType = "OneDrive"
)

// AllServices returns the provider types Tether knows about.
func AllServices() []ServiceType {
	return []ServiceType{ServiceGoogleDrive, ServiceOneDrive}
}

// IsValid returns true if the service type is recognised.
func (s ServiceType) IsValid() bool {
	switch s {
	case ServiceGoogleDrive, ServiceOneDrive:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s ServiceType) String() string {
	return string(s)
}

// ParseServiceType maps a user-facing alias to a ServiceType.
// Accepts the canonical name as well as short forms such as "drive" or "onedrive".
func ParseServiceType(s string) (ServiceType, bool) {
	switch s {
	case string(ServiceGoogleDrive), "drive", "gdrive", "google", "google-drive":
		return ServiceGoogleDrive, true
	case string(ServiceOneDrive), "onedrive", "microsoft", "sharepoint":
		return ServiceOneDrive, true
	default:
		return "", false
	}
}

// CredentialRecord is the persisted, encrypted form of a credential.
//
// (AccountID, Service) identifies at most one record. Name is unique across
// all services and can be changed independently of the account.
type CredentialRecord struct {
	// ID is the store-assigned identifier.
	ID int64
	// Name is the user-chosen label.
	Name string
	// AccountID is the provider's stable subject identifier for the user.
	AccountID string
	// Service is the provider this credential authenticates against.
	Service ServiceType
	// Ciphertext is the sealed token including its authentication tag.
	Ciphertext []byte
	// Nonce is the per-record nonce, regenerated on every write.
	Nonce []byte
	// CreatedAt is when the record was first stored.
	CreatedAt time.Time
	// UpdatedAt is when the token was last replaced or the record renamed.
	UpdatedAt time.Time
}

// Credential is a decrypted credential handed to connectors.
type Credential struct {
	ID        int64
	Name      string
	AccountID string
	Service   ServiceType
	// Token is the serialised OAuthToken.
	Token []byte
}

// CredentialSummary describes a credential without exposing its token.
type CredentialSummary struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	AccountID string      `json:"account_id"`
	Service   ServiceType `json:"service"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Summary returns the non-secret view of the record.
func (r *CredentialRecord) Summary() CredentialSummary {
	return CredentialSummary{
		ID:        r.ID,
		Name:      r.Name,
		AccountID: r.AccountID,
		Service:   r.Service,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
