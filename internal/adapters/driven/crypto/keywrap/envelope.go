// Package keywrap protects the vault master secret at rest.
//
// A wrapped secret is stored as an envelope:
//
//	version(1) || scheme(1) || scheme header || nonce(24) || sealed
//
// The sealed part is XChaCha20-Poly1305 under a key-encryption key (KEK)
// that never touches the database: it lives in the OS keyring or is derived
// from a passphrase each time it is needed.
package keywrap

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/custodia-labs/tether/internal/core/domain"
)

const envelopeVersion = 0x01

// Scheme identifies how the KEK was obtained.
type Scheme byte

const (
	// SchemeKeyring means the KEK is stored in the OS keyring.
	SchemeKeyring Scheme = 0x01

	// SchemePassphrase means the KEK is derived from a passphrase with Argon2id.
	SchemePassphrase Scheme = 0x02
)

func (s Scheme) String() string {
	switch s {
	case SchemeKeyring:
		return "keyring"
	case SchemePassphrase:
		return "passphrase"
	default:
		return fmt.Sprintf("scheme(0x%02x)", byte(s))
	}
}

var (
	// ErrInvalidEnvelope is returned when an envelope is truncated or malformed.
	ErrInvalidEnvelope = errors.New("keywrap: invalid envelope")

	// ErrUnsupportedVersion is returned for envelopes from a newer format.
	ErrUnsupportedVersion = errors.New("keywrap: unsupported envelope version")

	// ErrSchemeMismatch is returned when a wrapper is asked to open another scheme's envelope.
	ErrSchemeMismatch = errors.New("keywrap: envelope scheme mismatch")
)

// ParseScheme returns the scheme recorded in an envelope.
func ParseScheme(envelope []byte) (Scheme, error) {
	if len(envelope) < 2 {
		return 0, ErrInvalidEnvelope
	}
	if envelope[0] != envelopeVersion {
		return 0, fmt.Errorf("%w: got version %d", ErrUnsupportedVersion, envelope[0])
	}
	return Scheme(envelope[1]), nil
}

// seal builds an envelope around secret using kek.
func seal(scheme Scheme, header, kek, secret []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(kek)
	if err != nil {
		return nil, fmt.Errorf("keywrap: create cipher: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("keywrap: generate nonce: %w", err)
	}

	prefix := make([]byte, 0, 2+len(header)+len(nonce))
	prefix = append(prefix, envelopeVersion, byte(scheme))
	prefix = append(prefix, header...)
	prefix = append(prefix, nonce...)

	// The header is authenticated so a swapped salt or scheme breaks the tag.
	ad := bytes.Clone(prefix[:2+len(header)])
	return aead.Seal(prefix, nonce, secret, ad), nil
}

// open reverses seal. headerLen is the size of the scheme-specific header.
func open(scheme Scheme, envelope []byte, headerLen int, kek []byte) ([]byte, error) {
	got, err := ParseScheme(envelope)
	if err != nil {
		return nil, err
	}
	if got != scheme {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrSchemeMismatch, scheme, got)
	}

	aead, err := chacha20poly1305.NewX(kek)
	if err != nil {
		return nil, fmt.Errorf("keywrap: create cipher: %w", err)
	}

	nonceStart := 2 + headerLen
	sealedStart := nonceStart + chacha20poly1305.NonceSizeX
	if len(envelope) < sealedStart+aead.Overhead() {
		return nil, ErrInvalidEnvelope
	}

	ad := envelope[:nonceStart]
	secret, err := aead.Open(nil, envelope[nonceStart:sealedStart], envelope[sealedStart:], ad)
	if err != nil {
		return nil, fmt.Errorf("keywrap: unwrap with %s: %w", scheme, domain.ErrMasterSecretUnavailable)
	}
	return secret, nil
}

// header returns the scheme-specific bytes between the scheme byte and the nonce.
func header(envelope []byte, n int) ([]byte, error) {
	if len(envelope) < 2+n {
		return nil, ErrInvalidEnvelope
	}
	return envelope[2 : 2+n], nil
}
