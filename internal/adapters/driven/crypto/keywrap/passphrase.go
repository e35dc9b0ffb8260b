package keywrap

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/term"

	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
)

// Ensure PassphraseWrapper implements the interface.
var _ driven.KeyWrapper = (*PassphraseWrapper)(nil)

// PassphraseEnv is the environment variable consulted before prompting.
const PassphraseEnv = "TETHER_VAULT_PASSPHRASE" //nolint:gosec // G101: variable name, not a credential

const (
	saltSize = 16
	// salt || time(4) || memory(4) || threads(1)
	passphraseHeaderSize = saltSize + 4 + 4 + 1
)

// ErrNoPassphrase is returned when no passphrase source is available.
var ErrNoPassphrase = errors.New("keywrap: no passphrase available (set " + PassphraseEnv + " or run interactively)")

// Argon2Params are the Argon2id cost parameters.
// They are recorded in each envelope so they can change without breaking old data.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultArgon2Params follows the RFC 9106 second recommended option.
var DefaultArgon2Params = Argon2Params{Time: 3, Memory: 64 * 1024, Threads: 4}

// PassphraseFunc returns the passphrase. confirm is true when a new
// envelope is being created and the user should type it twice.
type PassphraseFunc func(confirm bool) ([]byte, error)

// PassphraseWrapper derives the KEK from a passphrase with Argon2id.
type PassphraseWrapper struct {
	params     Argon2Params
	passphrase PassphraseFunc
}

// NewPassphraseWrapper creates a passphrase wrapper.
// A nil source uses the environment, then an interactive terminal prompt.
func NewPassphraseWrapper(params Argon2Params, source PassphraseFunc) *PassphraseWrapper {
	if source == nil {
		source = DefaultPassphrase(os.Stdin, os.Stderr)
	}
	if params.Time == 0 || params.Memory == 0 || params.Threads == 0 {
		params = DefaultArgon2Params
	}
	return &PassphraseWrapper{params: params, passphrase: source}
}

// StaticPassphrase returns a source that always yields p.
func StaticPassphrase(p string) PassphraseFunc {
	return func(bool) ([]byte, error) {
		return []byte(p), nil
	}
}

// DefaultPassphrase reads PassphraseEnv, falling back to a no-echo prompt
// when in is a terminal.
func DefaultPassphrase(in *os.File, out io.Writer) PassphraseFunc {
	return func(confirm bool) ([]byte, error) {
		if p := os.Getenv(PassphraseEnv); p != "" {
			return []byte(p), nil
		}

		fd := int(in.Fd()) //nolint:gosec // G115: file descriptors fit in int
		if !term.IsTerminal(fd) {
			return nil, ErrNoPassphrase
		}

		first, err := prompt(fd, out, "Vault passphrase: ")
		if err != nil {
			return nil, err
		}
		if !confirm {
			return first, nil
		}

		second, err := prompt(fd, out, "Confirm passphrase: ")
		if err != nil {
			return nil, err
		}
		defer clear(second)
		if !bytes.Equal(first, second) {
			clear(first)
			return nil, fmt.Errorf("keywrap: passphrases do not match: %w", domain.ErrInvalidInput)
		}
		return first, nil
	}
}

func prompt(fd int, out io.Writer, label string) ([]byte, error) {
	fmt.Fprint(out, label)
	p, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return nil, fmt.Errorf("keywrap: read passphrase: %w", err)
	}
	if len(bytes.TrimSpace(p)) == 0 {
		return nil, fmt.Errorf("keywrap: empty passphrase: %w", domain.ErrInvalidInput)
	}
	return p, nil
}

// ReaderPassphrase reads one line from r. Used for piped input.
func ReaderPassphrase(r io.Reader) PassphraseFunc {
	br := bufio.NewReader(r)
	return func(bool) ([]byte, error) {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("keywrap: read passphrase: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return nil, ErrNoPassphrase
		}
		return []byte(line), nil
	}
}

// Name identifies the scheme.
func (w *PassphraseWrapper) Name() string {
	return SchemePassphrase.String()
}

// Wrap seals secret under a KEK derived from a new random salt.
func (w *PassphraseWrapper) Wrap(secret []byte) ([]byte, error) {
	pass, err := w.passphrase(true)
	if err != nil {
		return nil, err
	}
	defer clear(pass)

	hdr := make([]byte, passphraseHeaderSize)
	if _, err := rand.Read(hdr[:saltSize]); err != nil {
		return nil, fmt.Errorf("keywrap: generate salt: %w", err)
	}
	binary.BigEndian.PutUint32(hdr[saltSize:], w.params.Time)
	binary.BigEndian.PutUint32(hdr[saltSize+4:], w.params.Memory)
	hdr[saltSize+8] = w.params.Threads

	kek := deriveKEK(pass, hdr)
	defer clear(kek)
	return seal(SchemePassphrase, hdr, kek, secret)
}

// Unwrap derives the KEK with the envelope's salt and parameters and opens it.
// A wrong passphrase yields domain.ErrMasterSecretUnavailable.
func (w *PassphraseWrapper) Unwrap(envelope []byte) ([]byte, error) {
	hdr, err := header(envelope, passphraseHeaderSize)
	if err != nil {
		return nil, err
	}

	pass, err := w.passphrase(false)
	if err != nil {
		return nil, err
	}
	defer clear(pass)

	kek := deriveKEK(pass, hdr)
	defer clear(kek)
	return open(SchemePassphrase, envelope, passphraseHeaderSize, kek)
}

func deriveKEK(pass, hdr []byte) []byte {
	salt := hdr[:saltSize]
	t := binary.BigEndian.Uint32(hdr[saltSize:])
	m := binary.BigEndian.Uint32(hdr[saltSize+4:])
	p := hdr[saltSize+8]
	return argon2.IDKey(pass, salt, t, m, p, kekSize)
}
