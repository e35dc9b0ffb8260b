package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tether/internal/normalisers/docx"
	"github.com/custodia-labs/tether/internal/normalisers/pdf"
)

type stubNormaliser struct{ exts []string }

func (s stubNormaliser) Extensions() []string { return s.exts }

func (s stubNormaliser) Normalise(context.Context, string) (string, error) { return "stub", nil }

func TestDefault_Extensions(t *testing.T) {
	r := Default()

	assert.Equal(t, []string{".csv", ".docx", ".log", ".markdown", ".md", ".pdf", ".txt"}, r.Extensions())
}

func TestRegistry_For(t *testing.T) {
	r := Default()

	n, ok := r.For("/tmp/Report.PDF")
	require.True(t, ok)
	assert.IsType(t, &pdf.Normaliser{}, n)

	n, ok = r.For("notes.docx")
	require.True(t, ok)
	assert.IsType(t, &docx.Normaliser{}, n)

	_, ok = r.For("image.png")
	assert.False(t, ok)
	_, ok = r.For("no-extension")
	assert.False(t, ok)
}

func TestRegistry_LaterRegistrationWins(t *testing.T) {
	r := Default()
	r.Register(stubNormaliser{exts: []string{".TXT"}})

	n, ok := r.For("a.txt")

	require.True(t, ok)
	assert.Equal(t, stubNormaliser{exts: []string{".TXT"}}, n)
}
