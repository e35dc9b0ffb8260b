package keywrap

import (
	"fmt"

	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
	"github.com/custodia-labs/tether/internal/logger"
)

// Ensure AutoWrapper implements the interface.
var _ driven.KeyWrapper = (*AutoWrapper)(nil)

// AutoWrapper prefers the OS keyring and falls back to a passphrase when
// no keyring is reachable, such as on a headless Linux host.
// Unwrap dispatches on the scheme recorded in the envelope.
type AutoWrapper struct {
	keyring    *KeyringWrapper
	passphrase *PassphraseWrapper
}

// NewAutoWrapper combines a keyring wrapper and a passphrase wrapper.
func NewAutoWrapper(kr *KeyringWrapper, pw *PassphraseWrapper) *AutoWrapper {
	return &AutoWrapper{keyring: kr, passphrase: pw}
}

// Name identifies the scheme.
func (w *AutoWrapper) Name() string {
	return "auto"
}

// Wrap uses the keyring if it is available, else the passphrase.
func (w *AutoWrapper) Wrap(secret []byte) ([]byte, error) {
	if w.keyring != nil && w.keyring.Available() {
		return w.keyring.Wrap(secret)
	}
	if w.passphrase == nil {
		return nil, fmt.Errorf("keywrap: no key wrapper available: %w", domain.ErrMasterSecretUnavailable)
	}
	logger.Info("os keyring unavailable, protecting vault with a passphrase")
	return w.passphrase.Wrap(secret)
}

// Unwrap opens an envelope produced by either scheme.
func (w *AutoWrapper) Unwrap(envelope []byte) ([]byte, error) {
	scheme, err := ParseScheme(envelope)
	if err != nil {
		return nil, err
	}

	switch {
	case scheme == SchemeKeyring && w.keyring != nil:
		return w.keyring.Unwrap(envelope)
	case scheme == SchemePassphrase && w.passphrase != nil:
		return w.passphrase.Unwrap(envelope)
	default:
		return nil, fmt.Errorf("keywrap: no wrapper for %s: %w", scheme, domain.ErrMasterSecretUnavailable)
	}
}

// New builds the wrapper selected by kind.
func New(kind domain.KeyWrapperKind, kr *KeyringWrapper, pw *PassphraseWrapper) (driven.KeyWrapper, error) {
	switch kind {
	case domain.KeyWrapperKeyring:
		return kr, nil
	case domain.KeyWrapperPassphrase:
		return pw, nil
	case domain.KeyWrapperAuto, "":
		return NewAutoWrapper(kr, pw), nil
	default:
		return nil, fmt.Errorf("keywrap: unknown wrapper %q: %w", kind, domain.ErrInvalidInput)
	}
}
