package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tether/internal/core/domain"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0600))
	return path
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".txt", ".csv", ".log"}, New().Extensions())
}

func TestNormalise(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{name: "plain", content: []byte("hello world\n"), want: "hello world"},
		{name: "bom stripped", content: []byte("\xef\xbb\xbfname,age\nann,3"), want: "name,age\nann,3"},
		{name: "invalid utf8 replaced", content: []byte("caf\xe9"), want: "caf�"},
		{name: "empty", content: nil, want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := New().Normalise(context.Background(), writeFile(t, "f.txt", tc.content))

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalise_RejectsBinary(t *testing.T) {
	_, err := New().Normalise(context.Background(), writeFile(t, "f.txt", []byte("MZ\x00\x01")))

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_MissingFile(t *testing.T) {
	_, err := New().Normalise(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReadText_Truncates(t *testing.T) {
	path := writeFile(t, "big.log", []byte(strings.Repeat("a", MaxReadBytes+100)))

	got, err := ReadText(path)

	require.NoError(t, err)
	assert.Len(t, got, MaxReadBytes)
}
