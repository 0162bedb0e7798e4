// Package rust extracts log templates from Rust sources: the log and
// tracing macro families with curly-brace interpolation, including
// inline-captured identifiers ({name}).
package rust

import (
	"regexp"
	"strings"

	"github.com/ttiimm/log2src/internal/lang/extractor"
	"github.com/ttiimm/log2src/internal/lang/format"
	"github.com/ttiimm/log2src/internal/source"
)

// Rust-specific patterns.
var (
	// macroCallPattern matches log/tracing macro invocations, optionally
	// path-qualified.
	// Example: "info!(...)", "log::warn!(...)", "tracing::debug!(...)"
	// Group 1: macro name
	macroCallPattern = regexp.MustCompile(`(?:[\w]+::)*(trace|debug|info|warn|error)!\s*\(`)

	// fnDeclPattern matches a function item up to its name; the scope
	// table pairs it with the block it opens.
	// Group 1: function name
	fnDeclPattern = regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?(?:const\s+)?(?:async\s+)?(?:unsafe\s+)?fn\s+(\w+)`)
)

// Extractor implements extractor.Extractor for Rust sources.
type Extractor struct{}

// NewExtractor creates a Rust extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ID implements extractor.Extractor.
func (e *Extractor) ID() string {
	return "rust"
}

// Extensions implements extractor.Extractor.
func (e *Extractor) Extensions() []string {
	return []string{".rs"}
}

// Extract implements extractor.Extractor.
func (e *Extractor) Extract(src []byte, path string) ([]source.LogTemplate, error) {
	text := string(src)
	lines := extractor.NewLineIndex(text)
	scopes := extractor.NewScopeTable(text, fnDeclPattern, baseName(path))

	var out []source.LogTemplate
	for _, m := range macroCallPattern.FindAllStringSubmatchIndex(text, -1) {
		macro := text[m[2]:m[3]]
		level := extractor.MethodLevel(macro)
		if level == "" {
			continue
		}

		args, _, ok := extractor.ScanArgs(text[m[1]:])
		if !ok || len(args) == 0 {
			continue
		}

		// tracing allows leading field lists (info!(field = 1, "msg"));
		// the template is the first string-literal argument.
		formatIdx := -1
		var lit string
		for i, arg := range args {
			if v, isLit := extractor.StringLiteral(arg); isLit {
				formatIdx = i
				lit = v
				break
			}
		}
		if formatIdx < 0 {
			continue
		}

		captured := make([]string, 0, len(args)-formatIdx-1)
		for _, c := range args[formatIdx+1:] {
			captured = append(captured, extractor.Capture(c))
		}

		line, col := lines.Position(m[0])
		out = append(out, source.LogTemplate{
			Segments: format.Curly(lit, captured),
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

func baseName(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, ".rs")
}

var _ extractor.Extractor = (*Extractor)(nil)
