package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
	"github.com/custodia-labs/tether/internal/core/ports/driving"
	"github.com/custodia-labs/tether/internal/logger"
)

// Ensure Vault implements the interface.
var _ driving.CredentialVault = (*Vault)(nil)

// MasterSecretKey is the secrets row holding the wrapped master secret.
const MasterSecretKey = "vault_master_key" //nolint:gosec // G101: row key, not a credential

// Vault encrypts OAuth tokens with a single master secret.
//
// The master secret is generated on first use, wrapped by the KeyWrapper and
// persisted. It is unwrapped for each operation and zeroed when the operation
// returns, so plaintext key material never outlives a call.
type Vault struct {
	store   driven.CredentialStore
	secrets driven.MasterSecretStore
	wrapper driven.KeyWrapper
	cipher  driven.RecordCipher

	initMu sync.Mutex
}

// NewVault creates a credential vault.
func NewVault(
	store driven.CredentialStore,
	secrets driven.MasterSecretStore,
	wrapper driven.KeyWrapper,
	cipher driven.RecordCipher,
) *Vault {
	return &Vault{
		store:   store,
		secrets: secrets,
		wrapper: wrapper,
		cipher:  cipher,
	}
}

// Store encrypts token and creates a new credential.
func (v *Vault) Store(
	ctx context.Context,
	name, accountID string,
	service domain.ServiceType,
	token []byte,
) (int64, error) {
	if strings.TrimSpace(name) == "" || accountID == "" || !service.IsValid() {
		return 0, domain.ErrInvalidInput
	}

	if _, err := v.store.GetByName(ctx, name); err == nil {
		return 0, domain.ErrDuplicateName
	} else if !errors.Is(err, domain.ErrNotFound) {
		return 0, fmt.Errorf("vault: looking up name: %w", err)
	}

	var nonce, ciphertext []byte
	err := v.withKey(ctx, func(key []byte) error {
		var err error
		nonce, ciphertext, err = v.cipher.Seal(key, token, associatedData(service, accountID))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("vault: sealing token: %w", err)
	}

	id, err := v.store.Insert(ctx, domain.CredentialRecord{
		Name:       name,
		AccountID:  accountID,
		Service:    service,
		Ciphertext: ciphertext,
		Nonce:      nonce,
	})
	if err != nil {
		return 0, err
	}

	logger.Debug("vault: stored credential", "id", id, "name", name, "service", service)
	return id, nil
}

// RetrieveByName decrypts the named credential.
func (v *Vault) RetrieveByName(ctx context.Context, name string) (domain.ServiceType, []byte, error) {
	rec, err := v.store.GetByName(ctx, name)
	if err != nil {
		return "", nil, err
	}

	var token []byte
	err = v.withKey(ctx, func(key []byte) error {
		var err error
		token, err = v.open(key, rec)
		return err
	})
	if err != nil {
		return "", nil, err
	}
	return rec.Service, token, nil
}

// RetrieveByAccountAndService returns the ID of an account's credential.
func (v *Vault) RetrieveByAccountAndService(ctx context.Context, accountID string, service domain.ServiceType) (int64, error) {
	rec, err := v.store.GetByAccount(ctx, accountID, service)
	if err != nil {
		return 0, err
	}
	return rec.ID, nil
}

// ListByService decrypts all credentials of a service.
// Records that fail verification are logged and skipped.
func (v *Vault) ListByService(ctx context.Context, service domain.ServiceType) ([]domain.Credential, error) {
	recs, err := v.store.ListByService(ctx, service)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}

	creds := make([]domain.Credential, 0, len(recs))
	err = v.withKey(ctx, func(key []byte) error {
		for i := range recs {
			token, err := v.open(key, &recs[i])
			if err != nil {
				logger.Warn("vault: skipping unreadable credential",
					"id", recs[i].ID, "name", recs[i].Name, "error", err)
				continue
			}
			creds = append(creds, domain.Credential{
				ID:        recs[i].ID,
				Name:      recs[i].Name,
				AccountID: recs[i].AccountID,
				Service:   recs[i].Service,
				Token:     token,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return creds, nil
}

// List returns all credentials without decrypting them.
func (v *Vault) List(ctx context.Context) ([]domain.CredentialSummary, error) {
	recs, err := v.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CredentialSummary, len(recs))
	for i := range recs {
		out[i] = recs[i].Summary()
	}
	return out, nil
}

// ListServices returns the services with at least one credential.
func (v *Vault) ListServices(ctx context.Context) ([]domain.ServiceType, error) {
	recs, err := v.store.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[domain.ServiceType]bool)
	var out []domain.ServiceType
	for _, r := range recs {
		if !seen[r.Service] {
			seen[r.Service] = true
			out = append(out, r.Service)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Rename changes a credential's name.
func (v *Vault) Rename(ctx context.Context, id int64, newName string) error {
	if strings.TrimSpace(newName) == "" {
		return domain.ErrInvalidInput
	}

	existing, err := v.store.GetByName(ctx, newName)
	switch {
	case err == nil && existing.ID == id:
		return nil
	case err == nil:
		return domain.ErrDuplicateName
	case !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("vault: looking up name: %w", err)
	}

	return v.store.Rename(ctx, id, newName)
}

// ReplaceToken re-encrypts a credential with a fresh nonce.
func (v *Vault) ReplaceToken(ctx context.Context, id int64, token []byte) error {
	rec, err := v.store.Get(ctx, id)
	if err != nil {
		return err
	}

	var nonce, ciphertext []byte
	err = v.withKey(ctx, func(key []byte) error {
		var err error
		nonce, ciphertext, err = v.cipher.Seal(key, token, associatedData(rec.Service, rec.AccountID))
		return err
	})
	if err != nil {
		return fmt.Errorf("vault: sealing token: %w", err)
	}

	return v.store.UpdateSecret(ctx, id, ciphertext, nonce)
}

// Delete removes a credential.
func (v *Vault) Delete(ctx context.Context, id int64) error {
	return v.store.Delete(ctx, id)
}

func (v *Vault) open(key []byte, rec *domain.CredentialRecord) ([]byte, error) {
	token, err := v.cipher.Open(key, rec.Nonce, rec.Ciphertext, associatedData(rec.Service, rec.AccountID))
	if err != nil {
		return nil, fmt.Errorf("vault: credential %d: %w", rec.ID, err)
	}
	return token, nil
}

// withKey unwraps the master secret, runs fn and zeroes the key.
func (v *Vault) withKey(ctx context.Context, fn func(key []byte) error) error {
	envelope, err := v.masterEnvelope(ctx)
	if err != nil {
		return err
	}

	key, err := v.wrapper.Unwrap(envelope)
	if err != nil {
		return fmt.Errorf("vault: unwrapping master secret: %w", err)
	}
	defer clear(key)

	if len(key) != v.cipher.KeySize() {
		return fmt.Errorf("vault: master secret has wrong size: %w", domain.ErrMasterSecretUnavailable)
	}
	return fn(key)
}

// masterEnvelope returns the wrapped master secret, creating it on first use.
func (v *Vault) masterEnvelope(ctx context.Context) ([]byte, error) {
	envelope, err := v.secrets.GetSecret(ctx, MasterSecretKey)
	if err == nil {
		return envelope, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("vault: reading master secret: %w", err)
	}

	v.initMu.Lock()
	defer v.initMu.Unlock()

	// Another caller may have created it while we waited.
	if envelope, err := v.secrets.GetSecret(ctx, MasterSecretKey); err == nil {
		return envelope, nil
	}

	key := make([]byte, v.cipher.KeySize())
	defer clear(key)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("vault: generating master secret: %w", err)
	}

	wrapped, err := v.wrapper.Wrap(key)
	if err != nil {
		return nil, fmt.Errorf("vault: wrapping master secret: %w", err)
	}

	stored, err := v.secrets.PutSecretIfAbsent(ctx, MasterSecretKey, wrapped)
	if err != nil {
		return nil, err
	}
	if bytes.Equal(stored, wrapped) {
		logger.Info("vault: created master secret", "wrapper", v.wrapper.Name())
	}
	return stored, nil
}

// associatedData binds a ciphertext to its owner so records cannot be swapped.
func associatedData(service domain.ServiceType, accountID string) []byte {
	return []byte(string(service) + "\x00" + accountID)
}
