package driven

// KeyWrapper protects the vault master secret at rest.
//
// Implementations include:
//   - OS keyring (Keychain, Credential Manager, Secret Service)
//   - Passphrase-derived key (Argon2id)
type KeyWrapper interface {
	// Wrap seals a master secret into an opaque envelope.
	Wrap(secret []byte) ([]byte, error)

	// Unwrap recovers the master secret from an envelope produced by Wrap.
	// Callers must zero the returned slice once done with it.
	Unwrap(envelope []byte) ([]byte, error)

	// Name identifies the scheme, for logs.
	Name() string
}

// RecordCipher is the AEAD used for individual credential records.
// It is stateless: the key is supplied per call so the master secret never
// outlives the operation that needed it.
type RecordCipher interface {
	// Seal encrypts plaintext with a fresh nonce bound to associatedData.
	Seal(key, plaintext, associatedData []byte) (nonce, ciphertext []byte, err error)

	// Open decrypts and verifies. A tag mismatch returns domain.ErrAuthenticationFailure.
	Open(key, nonce, ciphertext, associatedData []byte) ([]byte, error)

	// KeySize is the required key length in bytes.
	KeySize() int
}
