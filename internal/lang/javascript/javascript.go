// Package javascript extracts log templates from JavaScript and
// TypeScript sources: console and logger calls with template literals,
// printf-style console formats, and string concatenation.
package javascript

import (
	"regexp"
	"strings"

	"github.com/ttiimm/log2src/internal/lang/extractor"
	"github.com/ttiimm/log2src/internal/lang/format"
	"github.com/ttiimm/log2src/internal/source"
)

// JavaScript-specific patterns.
var (
	// logCallPattern matches console.* and logger-shaped calls.
	// Group 1: receiver, group 2: method
	logCallPattern = regexp.MustCompile(
		`([A-Za-z_$][\w$]*)\.(trace|debug|info|warn|error|fatal|log)\s*\(`)

	// fnDeclPattern matches the named-function shapes: declarations,
	// assigned function expressions, arrow assignments, and class
	// methods whose parameter list ends the line. A method written with
	// its opening brace on the same line as its parameters is not
	// matched; its calls take the name of the enclosing scope.
	// Exactly one of groups 1-3 captures the name.
	fnDeclPattern = regexp.MustCompile(
		`(?m)function\s+(\w+)\s*\([^){]*\)` +
			`|(?:^|[\s;])(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?(?:function\s*\([^){]*\)|\([^){]*\)\s*=>|\w+\s*=>)` +
			`|^\s*(?:async\s+)?(\w+)\s*\([^){]*\)\s*$`)
)

// Extractor implements extractor.Extractor for JS/TS sources.
type Extractor struct{}

// NewExtractor creates a JavaScript extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ID implements extractor.Extractor.
func (e *Extractor) ID() string {
	return "javascript"
}

// Extensions implements extractor.Extractor. TypeScript rides along; the
// call shapes are identical.
func (e *Extractor) Extensions() []string {
	return []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".mts", ".cts"}
}

// Extract implements extractor.Extractor.
func (e *Extractor) Extract(src []byte, path string) ([]source.LogTemplate, error) {
	text := string(src)
	lines := extractor.NewLineIndex(text)
	scopes := extractor.NewScopeTable(text, fnDeclPattern, baseName(path))

	var out []source.LogTemplate
	for _, m := range logCallPattern.FindAllStringSubmatchIndex(text, -1) {
		recv := text[m[2]:m[3]]
		method := text[m[4]:m[5]]
		if recv != "console" && !extractor.IsLoggerReceiver(recv) {
			continue
		}
		level := extractor.MethodLevel(method)
		if level == "" {
			// console.log carries no severity of its own.
			if method != "log" {
				continue
			}
			level = source.LevelInfo
		}

		args, _, ok := extractor.ScanArgs(text[m[1]:])
		if !ok || len(args) == 0 {
			continue
		}

		segs, ok := buildSegments(args[0], args[1:])
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

// buildSegments handles template literals, quoted printf formats, plus
// + concatenation.
func buildSegments(arg string, rawCaptured []string) ([]source.Segment, bool) {
	arg = strings.TrimSpace(arg)

	if len(arg) >= 2 && arg[0] == '`' && arg[len(arg)-1] == '`' {
		return format.TemplateLiteral(arg[1 : len(arg)-1]), true
	}

	captured := make([]string, 0, len(rawCaptured))
	for _, c := range rawCaptured {
		captured = append(captured, extractor.Capture(c))
	}

	if lit, ok := extractor.StringLiteral(arg); ok {
		return format.Printf(lit, captured), true
	}

	parts := extractor.SplitConcat(arg)
	if len(parts) < 2 {
		if extractor.IsIdent(arg) {
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
