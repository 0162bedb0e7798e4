// Package index holds the in-memory template store: buckets keyed by
// literal prefix, a dynamic-first bucket for templates whose first
// segment is a placeholder, and best-candidate retrieval for a record
// body. The index follows an explicit create → populate → freeze → query
// lifecycle; the read path takes no locks.
package index

import (
	"sort"
	"strings"

	"github.com/ttiimm/log2src/internal/source"
)

// minFallbackToken is the shortest literal fragment considered during the
// substring fallback; shorter fragments match everything.
const minFallbackToken = 3

// Digest identifies the state of an indexed source tree: a hash over the
// (path, mtime, size) tuples of every indexed file.
type Digest string

// Index maps literal prefixes to templates.
type Index struct {
	buckets map[string][]*source.LogTemplate
	// dynamic holds templates with an empty literal prefix.
	dynamic []*source.LogTemplate
	all     []*source.LogTemplate
	// byName groups templates by enclosing function for stack resolution.
	byName map[string][]*source.LogTemplate

	maxKeyLen int
	digest    Digest
	frozen    bool
}

// New creates an empty, unfrozen index.
func New() *Index {
	return &Index{
		buckets: make(map[string][]*source.LogTemplate),
		byName:  make(map[string][]*source.LogTemplate),
	}
}

// Insert adds a template. Panics if the index is frozen; population and
// querying never interleave.
func (x *Index) Insert(t *source.LogTemplate) {
	if x.frozen {
		panic("index: insert after freeze")
	}
	x.all = append(x.all, t)
	x.byName[t.SrcRef.Name] = append(x.byName[t.SrcRef.Name], t)

	prefix := t.LiteralPrefix()
	if prefix == "" {
		x.dynamic = append(x.dynamic, t)
		return
	}
	x.buckets[prefix] = append(x.buckets[prefix], t)
	if len(prefix) > x.maxKeyLen {
		x.maxKeyLen = len(prefix)
	}
}

// Freeze fixes the candidate ordering (sourcePath, then lineNumber,
// insertion order preserved for ties) and seals the index for reads.
func (x *Index) Freeze(digest Digest) {
	order := func(ts []*source.LogTemplate) {
		sort.SliceStable(ts, func(i, j int) bool {
			if ts[i].SrcRef.SourcePath != ts[j].SrcRef.SourcePath {
				return ts[i].SrcRef.SourcePath < ts[j].SrcRef.SourcePath
			}
			return ts[i].SrcRef.LineNumber < ts[j].SrcRef.LineNumber
		})
	}
	for _, bucket := range x.buckets {
		order(bucket)
	}
	order(x.dynamic)
	order(x.all)
	for _, ts := range x.byName {
		order(ts)
	}
	x.digest = digest
	x.frozen = true
}

// Digest returns the digest the index was frozen with.
func (x *Index) Digest() Digest {
	return x.digest
}

// Len returns the number of templates.
func (x *Index) Len() int {
	return len(x.all)
}

// Templates returns every template in frozen order.
func (x *Index) Templates() []*source.LogTemplate {
	return x.all
}

// ByName returns the templates whose enclosing function is name.
func (x *Index) ByName(name string) []*source.LogTemplate {
	return x.byName[name]
}

// Lookup returns the candidate templates for a record body: the bucket of
// the longest prefix of body present as a key, or — when no prefix
// matches — the dynamic-first bucket plus every template with a literal
// token occurring somewhere in the body.
func (x *Index) Lookup(body string) []*source.LogTemplate {
	max := x.maxKeyLen
	if len(body) < max {
		max = len(body)
	}
	for n := max; n > 0; n-- {
		if bucket, ok := x.buckets[body[:n]]; ok {
			return bucket
		}
	}

	seen := make(map[*source.LogTemplate]bool, len(x.dynamic))
	out := make([]*source.LogTemplate, 0, len(x.dynamic))
	for _, t := range x.dynamic {
		seen[t] = true
		out = append(out, t)
	}
	for _, t := range x.all {
		if seen[t] {
			continue
		}
		if literalTokenInBody(t, body) {
			out = append(out, t)
		}
	}
	return out
}

// literalTokenInBody reports whether any literal segment of t (of at
// least minFallbackToken bytes) occurs as a substring of body.
func literalTokenInBody(t *source.LogTemplate, body string) bool {
	for _, seg := range t.Segments {
		if !seg.IsLiteral() || len(seg.Literal) < minFallbackToken {
			continue
		}
		if strings.Contains(body, seg.Literal) {
			return true
		}
	}
	return false
}
