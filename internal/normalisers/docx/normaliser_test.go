package docx

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tether/internal/core/domain"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// writeDOCX builds a minimal DOCX archive from the given parts.
func writeDOCX(t *testing.T, parts map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range parts {
		part, err := w.Create(name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestNormalise_Paragraphs(t *testing.T) {
	path := writeDOCX(t, map[string]string{
		"word/document.xml": `<?xml version="1.0"?>
<w:document ` + wordNS + `><w:body>
<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> world</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>line</w:t></w:r></w:p>
</w:body></w:document>`,
	})

	got, err := New().Normalise(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "Hello world\nSecond\tline", got)
}

func TestNormalise_TableCells(t *testing.T) {
	path := writeDOCX(t, map[string]string{
		"word/document.xml": `<w:document ` + wordNS + `><w:body><w:tbl><w:tr>
<w:tc><w:p><w:r><w:t>Cell A</w:t></w:r></w:p></w:tc>
<w:tc><w:p><w:r><w:t>Cell B</w:t></w:r></w:p></w:tc>
</w:tr></w:tbl></w:body></w:document>`,
	})

	got, err := New().Normalise(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "Cell A\nCell B", got)
}

func TestNormalise_PrependsCoreTitle(t *testing.T) {
	path := writeDOCX(t, map[string]string{
		"word/document.xml": `<w:document ` + wordNS + `><w:body><w:p><w:r><w:t>Body text</w:t></w:r></w:p></w:body></w:document>`,
		"docProps/core.xml": `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>Design Review</dc:title></cp:coreProperties>`,
	})

	got, err := New().Normalise(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "Design Review\n\nBody text", got)
}

func TestNormalise_InvalidInput(t *testing.T) {
	notZip := filepath.Join(t.TempDir(), "fake.docx")
	require.NoError(t, os.WriteFile(notZip, []byte("plain text"), 0600))

	tests := map[string]string{
		"not a zip":    notZip,
		"missing body": writeDOCX(t, map[string]string{"[Content_Types].xml": "<Types/>"}),
		"broken xml":   writeDOCX(t, map[string]string{"word/document.xml": "<w:document><w:body>"}),
	}
	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New().Normalise(context.Background(), path)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestNormalise_CancelledContext(t *testing.T) {
	path := writeDOCX(t, map[string]string{
		"word/document.xml": `<w:document ` + wordNS + `><w:body><w:p><w:r><w:t>x</w:t></w:r></w:p></w:body></w:document>`,
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Normalise(ctx, path)

	assert.ErrorIs(t, err, context.Canceled)
}
