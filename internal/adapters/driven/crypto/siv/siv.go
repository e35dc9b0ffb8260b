// Package siv provides the record cipher used by the credential vault:
// AES-256-GCM-SIV, a nonce-misuse-resistant AEAD (RFC 8452).
package siv

import (
	"fmt"

	"github.com/tink-crypto/tink-go/v2/aead/subtle"

	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
)

// Ensure Cipher implements the interface.
var _ driven.RecordCipher = (*Cipher)(nil)

const (
	// KeySize is the AES-256 key length.
	KeySize = 32

	// NonceSize is the GCM-SIV nonce length.
	NonceSize = 12

	// TagSize is the authentication tag appended to every ciphertext.
	TagSize = 16
)

// Cipher seals credential records with AES-256-GCM-SIV.
// It holds no key material; the key is passed to each call.
type Cipher struct{}

// New creates a record cipher.
func New() *Cipher {
	return &Cipher{}
}

// KeySize returns the required key length in bytes.
func (c *Cipher) KeySize() int {
	return KeySize
}

// Seal encrypts plaintext under key with a fresh random nonce.
// The returned ciphertext includes the authentication tag.
func (c *Cipher) Seal(key, plaintext, associatedData []byte) ([]byte, []byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, nil, err
	}

	// tink emits nonce || ciphertext || tag
	out, err := aead.Encrypt(plaintext, associatedData)
	if err != nil {
		return nil, nil, fmt.Errorf("siv: encrypt: %w", err)
	}

	nonce := make([]byte, NonceSize)
	copy(nonce, out[:NonceSize])
	ciphertext := make([]byte, len(out)-NonceSize)
	copy(ciphertext, out[NonceSize:])

	return nonce, ciphertext, nil
}

// Open verifies and decrypts a record.
// Any verification failure is reported as domain.ErrAuthenticationFailure.
func (c *Cipher) Open(key, nonce, ciphertext, associatedData []byte) ([]byte, error) {
	if len(nonce) != NonceSize || len(ciphertext) < TagSize {
		return nil, domain.ErrAuthenticationFailure
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	blob := make([]byte, 0, len(nonce)+len(ciphertext))
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)

	plaintext, err := aead.Decrypt(blob, associatedData)
	if err != nil {
		return nil, domain.ErrAuthenticationFailure
	}
	return plaintext, nil
}

func newAEAD(key []byte) (*subtle.AESGCMSIV, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("siv: key must be %d bytes, got %d: %w", KeySize, len(key), domain.ErrInvalidInput)
	}
	aead, err := subtle.NewAESGCMSIV(key)
	if err != nil {
		return nil, fmt.Errorf("siv: %w", err)
	}
	return aead, nil
}
