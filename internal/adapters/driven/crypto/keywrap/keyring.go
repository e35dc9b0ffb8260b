package keywrap

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
)

// Ensure KeyringWrapper implements the interface.
var _ driven.KeyWrapper = (*KeyringWrapper)(nil)

// Default keyring entry holding the KEK.
const (
	DefaultKeyringService = "tether"
	DefaultKeyringUser    = "vault-kek"
)

const kekSize = 32

// KeyringWrapper keeps the KEK in the user's OS keyring: Keychain on macOS,
// Credential Manager on Windows, Secret Service on Linux.
type KeyringWrapper struct {
	service string
	user    string
}

// NewKeyringWrapper creates a wrapper using the given keyring entry.
// Empty arguments select the defaults.
func NewKeyringWrapper(service, user string) *KeyringWrapper {
	if service == "" {
		service = DefaultKeyringService
	}
	if user == "" {
		user = DefaultKeyringUser
	}
	return &KeyringWrapper{service: service, user: user}
}

// Name identifies the scheme.
func (w *KeyringWrapper) Name() string {
	return SchemeKeyring.String()
}

// Available reports whether the OS keyring can be reached.
// A missing entry still counts as available.
func (w *KeyringWrapper) Available() bool {
	_, err := keyring.Get(w.service, w.user)
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}

// Wrap seals secret under the keyring KEK, creating the KEK on first use.
func (w *KeyringWrapper) Wrap(secret []byte) ([]byte, error) {
	kek, err := w.kek(true)
	if err != nil {
		return nil, err
	}
	defer clear(kek)
	return seal(SchemeKeyring, nil, kek, secret)
}

// Unwrap opens an envelope sealed by Wrap.
func (w *KeyringWrapper) Unwrap(envelope []byte) ([]byte, error) {
	kek, err := w.kek(false)
	if err != nil {
		return nil, err
	}
	defer clear(kek)
	return open(SchemeKeyring, envelope, 0, kek)
}

func (w *KeyringWrapper) kek(create bool) ([]byte, error) {
	encoded, err := keyring.Get(w.service, w.user)
	switch {
	case err == nil:
		kek, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil || len(kek) != kekSize {
			return nil, fmt.Errorf("keywrap: keyring entry %s/%s is corrupt: %w", w.service, w.user, domain.ErrMasterSecretUnavailable)
		}
		return kek, nil
	case errors.Is(err, keyring.ErrNotFound) && create:
		kek := make([]byte, kekSize)
		if _, err := rand.Read(kek); err != nil {
			return nil, fmt.Errorf("keywrap: generate kek: %w", err)
		}
		if err := keyring.Set(w.service, w.user, base64.StdEncoding.EncodeToString(kek)); err != nil {
			return nil, fmt.Errorf("keywrap: store kek in keyring: %w", err)
		}
		return kek, nil
	case errors.Is(err, keyring.ErrNotFound):
		return nil, fmt.Errorf("keywrap: keyring entry %s/%s missing: %w", w.service, w.user, domain.ErrMasterSecretUnavailable)
	default:
		return nil, fmt.Errorf("keywrap: read keyring: %w", err)
	}
}
