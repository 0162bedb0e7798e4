// Package source defines the shared data model for log-to-source mapping:
// source references, log templates, and the literal/placeholder segments
// a template is made of. The index owns templates; the matcher only reads
// them, so nothing here carries back-pointers.
package source

import "strings"

// placeholderSentinel replaces each placeholder when computing a template's
// stable fingerprint, so that templates differing only in placeholder
// expressions collapse to the same fingerprint.
const placeholderSentinel = "\x00"

// SourceRef identifies a single statement in a source tree.
type SourceRef struct {
	SourcePath string `json:"sourcePath" cbor:"sourcePath"`
	LineNumber int    `json:"lineNumber" cbor:"lineNumber"`
	Column     int    `json:"column" cbor:"column"`
	// Name is the enclosing function or method; for top-level calls it is
	// the module or file base name.
	Name string `json:"name" cbor:"name"`
}

// Unresolved returns the sentinel reference used for unmatched records and
// frames that cannot be mapped back to the tree.
func Unresolved() SourceRef {
	return SourceRef{Name: "???", LineNumber: -1}
}

// IsUnresolved reports whether r is the unmatched sentinel.
func (r SourceRef) IsUnresolved() bool {
	return r.Name == "???" && r.LineNumber == -1
}

// PlaceholderKind classifies the syntax a placeholder was written in.
type PlaceholderKind string

const (
	// Positional is an anonymous slot filled by argument order: {} or %s.
	Positional PlaceholderKind = "positional"
	// Named is a slot that names its value: {count} or ${expr}.
	Named PlaceholderKind = "named"
	// FormatSpec is a slot carrying formatting directives: {n:>8} or %04d.
	FormatSpec PlaceholderKind = "format_spec"
)

// Placeholder is a dynamic slot in a log template.
type Placeholder struct {
	Kind PlaceholderKind `json:"kind" cbor:"kind"`
	// Raw is the placeholder as written in the source, e.g. "{}" or "%02d".
	Raw string `json:"raw" cbor:"raw"`
	// Captured is the source-level expression supplying the value at
	// runtime, when the host language exposes it statically. Empty when
	// unknown.
	Captured string `json:"captured,omitempty" cbor:"captured,omitempty"`
}

// Segment is one element of a template: either a literal (Placeholder nil)
// or a placeholder (Literal empty). A tagged variant, not a hierarchy.
type Segment struct {
	Literal     string       `json:"literal,omitempty" cbor:"literal,omitempty"`
	Placeholder *Placeholder `json:"placeholder,omitempty" cbor:"placeholder,omitempty"`
}

// Lit builds a literal segment.
func Lit(s string) Segment {
	return Segment{Literal: s}
}

// Ph builds a placeholder segment.
func Ph(kind PlaceholderKind, raw, captured string) Segment {
	return Segment{Placeholder: &Placeholder{Kind: kind, Raw: raw, Captured: captured}}
}

// IsLiteral reports whether s is a literal segment.
func (s Segment) IsLiteral() bool {
	return s.Placeholder == nil
}

// LogTemplate is the static fingerprint of one logging call: the ordered
// literal/placeholder segments it will produce at runtime, tagged with the
// call site that generated it. Two calls at distinct sites are distinct
// templates even when their text is identical.
type LogTemplate struct {
	Segments []Segment `json:"segments" cbor:"segments"`
	SrcRef   SourceRef `json:"srcRef" cbor:"srcRef"`
	// Level is the canonical severity recognized from the call, empty when
	// the call shape does not imply one.
	Level string `json:"level,omitempty" cbor:"level,omitempty"`
}

// Fingerprint returns the template's literal segments concatenated with
// every placeholder collapsed to a single sentinel byte.
func (t *LogTemplate) Fingerprint() string {
	var b strings.Builder
	for _, seg := range t.Segments {
		if seg.IsLiteral() {
			b.WriteString(seg.Literal)
		} else {
			b.WriteString(placeholderSentinel)
		}
	}
	return b.String()
}

// LiteralPrefix returns the longest contiguous literal starting at segment
// zero. It is empty when the first segment is a placeholder; such
// templates live in the index's dynamic-first bucket.
func (t *LogTemplate) LiteralPrefix() string {
	var b strings.Builder
	for _, seg := range t.Segments {
		if !seg.IsLiteral() {
			break
		}
		b.WriteString(seg.Literal)
	}
	return b.String()
}

// Placeholders returns the template's placeholder segments in order.
func (t *LogTemplate) Placeholders() []*Placeholder {
	var out []*Placeholder
	for _, seg := range t.Segments {
		if !seg.IsLiteral() {
			out = append(out, seg.Placeholder)
		}
	}
	return out
}

// FoldLiterals merges adjacent literal segments and drops empty literals,
// normalizing extractor output so matching never sees zero-width literals.
func FoldLiterals(segs []Segment) []Segment {
	out := make([]Segment, 0, len(segs))
	for _, seg := range segs {
		if seg.IsLiteral() {
			if seg.Literal == "" {
				continue
			}
			if n := len(out); n > 0 && out[n-1].IsLiteral() {
				out[n-1].Literal += seg.Literal
				continue
			}
		}
		out = append(out, seg)
	}
	return out
}
