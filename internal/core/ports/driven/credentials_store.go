package driven

import (
	"context"

	"github.com/custodia-labs/tether/internal/core/domain"
)

// CredentialStore persists encrypted credential records.
// It never sees plaintext tokens; encryption happens in the vault service.
//
// Implementations must enforce name uniqueness (domain.ErrDuplicateName) and
// at most one record per (AccountID, Service) pair. Writes are atomic: a record
// is either fully stored or not at all.
type CredentialStore interface {
	// Insert stores a new record and returns its assigned ID.
	Insert(ctx context.Context, rec domain.CredentialRecord) (int64, error)

	// Get retrieves a record by ID. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id int64) (*domain.CredentialRecord, error)

	// GetByName retrieves a record by name. Returns domain.ErrNotFound if absent.
	GetByName(ctx context.Context, name string) (*domain.CredentialRecord, error)

	// GetByAccount retrieves the record for an account on a service.
	// Returns domain.ErrNotFound if absent.
	GetByAccount(ctx context.Context, accountID string, service domain.ServiceType) (*domain.CredentialRecord, error)

	// ListByService returns all records for a service ordered by ID.
	ListByService(ctx context.Context, service domain.ServiceType) ([]domain.CredentialRecord, error)

	// List returns every record ordered by ID.
	List(ctx context.Context) ([]domain.CredentialRecord, error)

	// UpdateSecret replaces ciphertext and nonce of an existing record.
	UpdateSecret(ctx context.Context, id int64, ciphertext, nonce []byte) error

	// Rename changes a record's name. Returns domain.ErrDuplicateName on collision.
	Rename(ctx context.Context, id int64, name string) error

	// Delete removes a record. Returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, id int64) error
}

// MasterSecretStore persists small named secrets, such as the wrapped vault key.
type MasterSecretStore interface {
	// GetSecret returns the stored value. Returns domain.ErrNotFound if absent.
	GetSecret(ctx context.Context, key string) ([]byte, error)

	// PutSecretIfAbsent stores value under key unless one already exists.
	// Returns the value that is stored after the call, which is the existing
	// value when another writer got there first.
	PutSecretIfAbsent(ctx context.Context, key string, value []byte) ([]byte, error)
}
