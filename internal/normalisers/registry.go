package normalisers

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/tether/internal/core/ports/driven"
	"github.com/custodia-labs/tether/internal/normalisers/docx"
	"github.com/custodia-labs/tether/internal/normalisers/markdown"
	"github.com/custodia-labs/tether/internal/normalisers/pdf"
	"github.com/custodia-labs/tether/internal/normalisers/plaintext"
)

// Registry maps file extensions to normalisers. Later registrations win.
type Registry struct {
	byExt map[string]driven.Normaliser
}

// NewRegistry creates a registry holding ns.
func NewRegistry(ns ...driven.Normaliser) *Registry {
	r := &Registry{byExt: make(map[string]driven.Normaliser)}
	for _, n := range ns {
		r.Register(n)
	}
	return r
}

// Default returns a registry with every built-in normaliser.
func Default() *Registry {
	return NewRegistry(
		plaintext.New(),
		markdown.New(),
		docx.New(),
		pdf.New(pdf.DefaultMaxPages),
	)
}

// Register adds n for each of its extensions.
func (r *Registry) Register(n driven.Normaliser) {
	for _, ext := range n.Extensions() {
		r.byExt[strings.ToLower(ext)] = n
	}
}

// For returns the normaliser for path's extension.
func (r *Registry) For(path string) (driven.Normaliser, bool) {
	n, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return n, ok
}

// Extensions returns the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
