// Package java extracts log templates from JVM-family sources (Java,
// Kotlin): slf4j-style {} interpolation, java.util.logging calls, and
// string concatenation. A minimal regex parse, not a front end.
package java

import (
	"strings"

	"github.com/ttiimm/log2src/internal/lang/extractor"
	"github.com/ttiimm/log2src/internal/lang/format"
	"github.com/ttiimm/log2src/internal/source"
)

// Extractor implements extractor.Extractor for JVM-family sources.
type Extractor struct{}

// NewExtractor creates a Java extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ID implements extractor.Extractor.
func (e *Extractor) ID() string {
	return "java"
}

// Extensions implements extractor.Extractor. Kotlin rides along: its
// logging surface (slf4j, JUL) is the same.
func (e *Extractor) Extensions() []string {
	return []string{".java", ".kt", ".kts"}
}

// Extract implements extractor.Extractor.
func (e *Extractor) Extract(src []byte, path string) ([]source.LogTemplate, error) {
	text := string(src)
	lines := extractor.NewLineIndex(text)
	scopes := extractor.NewScopeTable(text, methodDeclPattern, baseName(path))

	var out []source.LogTemplate
	for _, m := range logCallPattern.FindAllStringSubmatchIndex(text, -1) {
		recv := text[m[2]:m[3]]
		method := text[m[4]:m[5]]
		if !extractor.IsLoggerReceiver(recv) {
			continue
		}

		args, _, ok := extractor.ScanArgs(text[m[1]:])
		if !ok || len(args) == 0 {
			continue
		}

		level := extractor.MethodLevel(method)
		formatArg := args[0]
		captured := args[1:]
		if method == "log" {
			// logger.log(Level.FINE, "message", args...)
			lm := julLevelPattern.FindStringSubmatch(args[0])
			if lm == nil || len(args) < 2 {
				continue
			}
			level = source.CanonicalLevel(lm[1])
			formatArg = args[1]
			captured = args[2:]
		}
		if level == "" {
			continue
		}

		segs, ok := buildSegments(formatArg, captured)
		if !ok {
			continue
		}

		line, col := lines.Position(m[0])
		out = append(out, source.LogTemplate{
			Segments: segs,
			Level:    level,
			SrcRef: source.SourceRef{
				SourcePath: path,
				LineNumber: line,
				Column:     col,
				Name:       scopes.At(m[0]),
			},
		})
	}
	return out, nil
}

// buildSegments turns the format argument into segments. A lone string
// literal goes through the curly-brace family (slf4j {} slots filled by
// the trailing arguments); a concatenation chain folds its literal parts
// and turns every other operand into a positional placeholder.
func buildSegments(arg string, rawCaptured []string) ([]source.Segment, bool) {
	captured := make([]string, 0, len(rawCaptured))
	for _, c := range rawCaptured {
		captured = append(captured, extractor.Capture(c))
	}

	if lit, ok := extractor.StringLiteral(arg); ok {
		return format.Curly(lit, captured), true
	}

	parts := extractor.SplitConcat(arg)
	if len(parts) < 2 {
		if extractor.IsIdent(strings.TrimSpace(arg)) {
			expr := extractor.Capture(arg)
			return []source.Segment{source.Ph(source.Positional, expr, expr)}, true
		}
		return nil, false
	}

	var segs []source.Segment
	sawLiteral := false
	for _, part := range parts {
		if lit, ok := extractor.StringLiteral(part); ok {
			segs = append(segs, source.Lit(lit))
			sawLiteral = true
			continue
		}
		expr := extractor.Capture(part)
		segs = append(segs, source.Ph(source.Positional, expr, expr))
	}
	if !sawLiteral {
		return nil, false
	}
	return source.FoldLiterals(segs), true
}

func baseName(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

var _ extractor.Extractor = (*Extractor)(nil)
