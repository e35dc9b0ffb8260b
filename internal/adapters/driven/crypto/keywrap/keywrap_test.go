package keywrap

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/custodia-labs/tether/internal/core/domain"
)

// cheap parameters keep the tests fast
var testParams = Argon2Params{Time: 1, Memory: 1024, Threads: 1}

var masterSecret = []byte("0123456789abcdef0123456789abcdef")

func TestKeyringWrapper_RoundTrip(t *testing.T) {
	keyring.MockInit()
	w := NewKeyringWrapper("tether-test", "kek")

	assert.True(t, w.Available())
	assert.Equal(t, "keyring", w.Name())

	env, err := w.Wrap(masterSecret)
	require.NoError(t, err)

	scheme, err := ParseScheme(env)
	require.NoError(t, err)
	assert.Equal(t, SchemeKeyring, scheme)
	assert.NotContains(t, string(env), string(masterSecret))

	got, err := w.Unwrap(env)
	require.NoError(t, err)
	assert.Equal(t, masterSecret, got)
}

func TestKeyringWrapper_ReusesKEK(t *testing.T) {
	keyring.MockInit()
	w := NewKeyringWrapper("", "")

	env1, err := w.Wrap(masterSecret)
	require.NoError(t, err)
	env2, err := w.Wrap(masterSecret)
	require.NoError(t, err)

	// Both envelopes must open with the single stored KEK.
	for _, env := range [][]byte{env1, env2} {
		got, err := w.Unwrap(env)
		require.NoError(t, err)
		assert.Equal(t, masterSecret, got)
	}
}

func TestKeyringWrapper_MissingKEK(t *testing.T) {
	keyring.MockInit()
	w := NewKeyringWrapper("tether-test", "kek")

	env, err := w.Wrap(masterSecret)
	require.NoError(t, err)
	require.NoError(t, keyring.Delete("tether-test", "kek"))

	_, err = w.Unwrap(env)
	assert.ErrorIs(t, err, domain.ErrMasterSecretUnavailable)
}

func TestKeyringWrapper_Unavailable(t *testing.T) {
	keyring.MockInitWithError(errors.New("no secret service"))
	defer keyring.MockInit()

	w := NewKeyringWrapper("", "")
	assert.False(t, w.Available())

	_, err := w.Wrap(masterSecret)
	assert.Error(t, err)
}

func TestPassphraseWrapper_RoundTrip(t *testing.T) {
	w := NewPassphraseWrapper(testParams, StaticPassphrase("correct horse"))

	env, err := w.Wrap(masterSecret)
	require.NoError(t, err)

	scheme, err := ParseScheme(env)
	require.NoError(t, err)
	assert.Equal(t, SchemePassphrase, scheme)

	got, err := w.Unwrap(env)
	require.NoError(t, err)
	assert.Equal(t, masterSecret, got)
}

func TestPassphraseWrapper_WrongPassphrase(t *testing.T) {
	env, err := NewPassphraseWrapper(testParams, StaticPassphrase("correct horse")).Wrap(masterSecret)
	require.NoError(t, err)

	_, err = NewPassphraseWrapper(testParams, StaticPassphrase("battery staple")).Unwrap(env)
	assert.ErrorIs(t, err, domain.ErrMasterSecretUnavailable)
}

func TestPassphraseWrapper_ParamsTravelWithEnvelope(t *testing.T) {
	env, err := NewPassphraseWrapper(testParams, StaticPassphrase("pw")).Wrap(masterSecret)
	require.NoError(t, err)

	// A wrapper configured with other costs still opens old envelopes.
	other := NewPassphraseWrapper(Argon2Params{Time: 2, Memory: 2048, Threads: 2}, StaticPassphrase("pw"))
	got, err := other.Unwrap(env)
	require.NoError(t, err)
	assert.Equal(t, masterSecret, got)
}

func TestPassphraseWrapper_TamperedHeader(t *testing.T) {
	w := NewPassphraseWrapper(testParams, StaticPassphrase("pw"))
	env, err := w.Wrap(masterSecret)
	require.NoError(t, err)

	env[2] ^= 0xff // first salt byte
	_, err = w.Unwrap(env)
	assert.ErrorIs(t, err, domain.ErrMasterSecretUnavailable)
}

func TestPassphraseWrapper_SourceError(t *testing.T) {
	w := NewPassphraseWrapper(testParams, func(bool) ([]byte, error) {
		return nil, ErrNoPassphrase
	})

	_, err := w.Wrap(masterSecret)
	assert.ErrorIs(t, err, ErrNoPassphrase)
}

func TestReaderPassphrase(t *testing.T) {
	src := ReaderPassphrase(strings.NewReader("hunter2\n"))
	p, err := src(false)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(p))

	_, err = ReaderPassphrase(strings.NewReader(""))(false)
	assert.ErrorIs(t, err, ErrNoPassphrase)
}

func TestAutoWrapper(t *testing.T) {
	pw := NewPassphraseWrapper(testParams, StaticPassphrase("pw"))

	t.Run("prefers keyring", func(t *testing.T) {
		keyring.MockInit()
		w := NewAutoWrapper(NewKeyringWrapper("", ""), pw)

		env, err := w.Wrap(masterSecret)
		require.NoError(t, err)
		scheme, _ := ParseScheme(env)
		assert.Equal(t, SchemeKeyring, scheme)

		got, err := w.Unwrap(env)
		require.NoError(t, err)
		assert.Equal(t, masterSecret, got)
	})

	t.Run("falls back to passphrase", func(t *testing.T) {
		keyring.MockInitWithError(errors.New("no secret service"))
		defer keyring.MockInit()
		w := NewAutoWrapper(NewKeyringWrapper("", ""), pw)

		env, err := w.Wrap(masterSecret)
		require.NoError(t, err)
		scheme, _ := ParseScheme(env)
		assert.Equal(t, SchemePassphrase, scheme)

		got, err := w.Unwrap(env)
		require.NoError(t, err)
		assert.Equal(t, masterSecret, got)
	})
}

func TestParseScheme_Invalid(t *testing.T) {
	_, err := ParseScheme([]byte{0x01})
	assert.ErrorIs(t, err, ErrInvalidEnvelope)

	_, err = ParseScheme([]byte{0x09, 0x01})
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestNew(t *testing.T) {
	kr := NewKeyringWrapper("", "")
	pw := NewPassphraseWrapper(testParams, StaticPassphrase("pw"))

	w, err := New(domain.KeyWrapperKeyring, kr, pw)
	require.NoError(t, err)
	assert.Equal(t, "keyring", w.Name())

	w, err = New(domain.KeyWrapperPassphrase, kr, pw)
	require.NoError(t, err)
	assert.Equal(t, "passphrase", w.Name())

	w, err = New(domain.KeyWrapperAuto, kr, pw)
	require.NoError(t, err)
	assert.Equal(t, "auto", w.Name())

	_, err = New("hsm", kr, pw)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
