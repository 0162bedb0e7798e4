package match

import (
	"strings"

	"github.com/ttiimm/log2src/internal/logparse"
	"github.com/ttiimm/log2src/internal/source"
)

// resolveStack maps every block of an exception chain to a list of source
// references, one sub-list per block, frames in log order.
func (m *Matcher) resolveStack(block *logparse.ExceptionBlock) [][]source.SourceRef {
	chain := block.Chain()
	out := make([][]source.SourceRef, 0, len(chain))
	for _, blk := range chain {
		refs := make([]source.SourceRef, 0, len(blk.Frames))
		for _, f := range blk.Frames {
			refs = append(refs, m.resolveFrame(f))
		}
		out = append(out, refs)
	}
	return out
}

// resolveFrame maps one frame to a source reference: a template whose
// enclosing function matches the frame's method and whose path ends with
// the frame's file, preferring call sites within frameProximity lines of
// the frame's own line, then any site in the same function. An unresolved
// frame becomes the sentinel reference with the frame's file as its path.
func (m *Matcher) resolveFrame(f logparse.Frame) source.SourceRef {
	candidates := m.frameCandidates(f)
	if len(candidates) == 0 {
		ref := source.Unresolved()
		ref.SourcePath = f.File
		return ref
	}

	best := candidates[0]
	if f.Line > 0 {
		bestDist := -1
		for _, t := range candidates {
			d := t.SrcRef.LineNumber - f.Line
			if d < 0 {
				d = -d
			}
			if d <= frameProximity && (bestDist < 0 || d < bestDist) {
				best = t
				bestDist = d
			}
		}
	}

	ref := best.SrcRef
	if f.Line > 0 {
		// The frame's own line is more precise than the call site's.
		ref.LineNumber = f.Line
		ref.Column = 1
	}
	if f.Method != "" {
		ref.Name = f.Method
	}
	return ref
}

// frameCandidates returns the templates that could live in the frame's
// function, filtered by file-suffix agreement when the frame names one.
func (m *Matcher) frameCandidates(f logparse.Frame) []*source.LogTemplate {
	var pool []*source.LogTemplate
	if f.Method != "" {
		pool = m.idx.ByName(f.Method)
	}
	if len(pool) == 0 && f.File != "" {
		// Frames without a known function (Go, Rust) fall back to a file
		// scan.
		for _, t := range m.idx.Templates() {
			if pathMatchesFile(t.SrcRef.SourcePath, f.File) {
				pool = append(pool, t)
			}
		}
		return pool
	}
	if f.File == "" {
		return pool
	}
	out := pool[:0:0]
	for _, t := range pool {
		if pathMatchesFile(t.SrcRef.SourcePath, f.File) {
			out = append(out, t)
		}
	}
	return out
}

// pathMatchesFile reports whether an indexed path ends with the file a
// frame names, on a path-component boundary.
func pathMatchesFile(path, file string) bool {
	if !strings.HasSuffix(path, file) {
		return false
	}
	rest := path[:len(path)-len(file)]
	return rest == "" || strings.HasSuffix(rest, "/") || strings.HasSuffix(rest, "\\")
}
