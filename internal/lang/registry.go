// Package lang wires the per-language extractors into a registry that
// routes source files by extension. New languages are new registrations;
// the index and matcher stay language-agnostic.
package lang

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/ttiimm/log2src/internal/lang/extractor"
	"github.com/ttiimm/log2src/internal/lang/golang"
	"github.com/ttiimm/log2src/internal/lang/java"
	"github.com/ttiimm/log2src/internal/lang/javascript"
	"github.com/ttiimm/log2src/internal/lang/python"
	"github.com/ttiimm/log2src/internal/lang/rust"
)

// Registry routes source files to the extractor claiming their extension.
type Registry struct {
	byExt map[string]extractor.Extractor
	byID  map[string]extractor.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byExt: make(map[string]extractor.Extractor),
		byID:  make(map[string]extractor.Extractor),
	}
}

// DefaultRegistry returns a registry with every built-in extractor
// registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(golang.NewExtractor())
	r.Register(java.NewExtractor())
	r.Register(python.NewExtractor())
	r.Register(rust.NewExtractor())
	r.Register(javascript.NewExtractor())
	return r
}

// Register adds an extractor; its extensions shadow earlier registrations.
func (r *Registry) Register(e extractor.Extractor) {
	r.byID[e.ID()] = e
	for _, ext := range e.Extensions() {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// ForPath returns the extractor claiming the path's extension, or nil.
func (r *Registry) ForPath(path string) extractor.Extractor {
	return r.byExt[strings.ToLower(filepath.Ext(path))]
}

// ByID returns the extractor with the given identifier, or nil.
func (r *Registry) ByID(id string) extractor.Extractor {
	return r.byID[id]
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
