package driving

import (
	"context"

	"github.com/custodia-labs/tether/internal/core/domain"
)

// CredentialVault stores OAuth tokens encrypted at rest.
// Tokens are decrypted only on demand and never logged.
type CredentialVault interface {
	// Store encrypts token and creates a new credential.
	// Returns domain.ErrDuplicateName if name is taken.
	Store(ctx context.Context, name, accountID string, service domain.ServiceType, token []byte) (int64, error)

	// RetrieveByName decrypts the credential called name.
	// Returns domain.ErrNotFound or domain.ErrAuthenticationFailure.
	RetrieveByName(ctx context.Context, name string) (domain.ServiceType, []byte, error)

	// RetrieveByAccountAndService returns the ID of the credential for an account.
	// Returns domain.ErrNotFound if none exists.
	RetrieveByAccountAndService(ctx context.Context, accountID string, service domain.ServiceType) (int64, error)

	// ListByService decrypts every credential of a service.
	// Records that fail verification are skipped.
	ListByService(ctx context.Context, service domain.ServiceType) ([]domain.Credential, error)

	// List returns all credentials without decrypting them.
	List(ctx context.Context) ([]domain.CredentialSummary, error)

	// ListServices returns the services that have at least one credential.
	ListServices(ctx context.Context) ([]domain.ServiceType, error)

	// Rename changes a credential's name.
	Rename(ctx context.Context, id int64, newName string) error

	// ReplaceToken re-encrypts a credential with a new token and a fresh nonce.
	ReplaceToken(ctx context.Context, id int64, token []byte) error

	// Delete removes a credential.
	Delete(ctx context.Context, id int64) error
}
