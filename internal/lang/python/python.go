// Package python extracts log templates from Python sources: the logging
// module's %-style formatting, f-strings, and str concatenation. Scope
// names come from def indentation, not a full parse.
package python

import (
	"strings"

	"github.com/ttiimm/log2src/internal/lang/extractor"
	"github.com/ttiimm/log2src/internal/lang/format"
	"github.com/ttiimm/log2src/internal/source"
)

// Extractor implements extractor.Extractor for Python sources.
type Extractor struct{}

// NewExtractor creates a Python extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ID implements extractor.Extractor.
func (e *Extractor) ID() string {
	return "python"
}

// Extensions implements extractor.Extractor.
func (e *Extractor) Extensions() []string {
	return []string{".py", ".pyw"}
}

// Extract implements extractor.Extractor.
func (e *Extractor) Extract(src []byte, path string) ([]source.LogTemplate, error) {
	text := string(src)
	lines := extractor.NewLineIndex(text)
	scopes := newDefScopes(text, baseName(path))

	var out []source.LogTemplate
	for _, m := range logCallPattern.FindAllStringSubmatchIndex(text, -1) {
		recv := text[m[2]:m[3]]
		method := text[m[4]:m[5]]
		if !extractor.IsLoggerReceiver(recv) && recv != "logging" && recv != "self" {
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
			// logger.log(logging.DEBUG, "message", args...)
			if len(args) < 2 {
				continue
			}
			level = levelConstant(args[0])
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
				Name:       scopes.at(m[0]),
			},
		})
	}
	return out, nil
}

// buildSegments handles the three Python shapes: f-strings interpolate
// inline, plain strings format %-style against the trailing arguments,
// and + chains fold.
func buildSegments(arg string, rawCaptured []string) ([]source.Segment, bool) {
	captured := make([]string, 0, len(rawCaptured))
	for _, c := range rawCaptured {
		if kw, _, found := strings.Cut(c, "="); found && extractor.IsIdent(strings.TrimSpace(kw)) {
			// Keyword arguments (exc_info=True) never fill placeholders.
			continue
		}
		captured = append(captured, extractor.Capture(c))
	}

	if fm := fstringPrefixPattern.FindStringSubmatch(arg); fm != nil {
		body, ok := extractor.StringLiteral(arg[strings.Index(arg, fm[1]):])
		if !ok {
			return nil, false
		}
		return format.Curly(body, nil), true
	}

	if lit, ok := extractor.StringLiteral(arg); ok {
		segs := format.Printf(lit, captured)
		if format.PlaceholderCount(segs) == 0 && strings.Contains(lit, "{") {
			// str.format-style templates keep their curly slots.
			segs = format.Curly(lit, captured)
		}
		return segs, true
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

// levelConstant resolves logging.DEBUG-style level expressions.
func levelConstant(expr string) string {
	expr = strings.TrimSpace(expr)
	if i := strings.LastIndexByte(expr, '.'); i >= 0 {
		expr = expr[i+1:]
	}
	return source.CanonicalLevel(expr)
}

// defScopes resolves enclosing function names by def indentation.
type defScopes struct {
	points []scopePoint
}

type scopePoint struct {
	offset int
	name   string
}

func newDefScopes(src, top string) *defScopes {
	type frame struct {
		indent int
		name   string
	}
	stack := []frame{{-1, top}}
	points := []scopePoint{{0, top}}

	offset := 0
	for _, line := range strings.SplitAfter(src, "\n") {
		trimmed := strings.TrimRight(line, "\n")
		if strings.TrimSpace(trimmed) != "" {
			indent := len(trimmed) - len(strings.TrimLeft(trimmed, " \t"))
			for len(stack) > 1 && indent <= stack[len(stack)-1].indent {
				stack = stack[:len(stack)-1]
				points = append(points, scopePoint{offset, stack[len(stack)-1].name})
			}
			if dm := defPattern.FindStringSubmatch(trimmed); dm != nil {
				stack = append(stack, frame{len(dm[1]), dm[2]})
				points = append(points, scopePoint{offset, dm[2]})
			}
		}
		offset += len(line)
	}
	return &defScopes{points: points}
}

func (s *defScopes) at(offset int) string {
	name := s.points[0].name
	for _, p := range s.points {
		if p.offset > offset {
			break
		}
		name = p.name
	}
	return name
}

func baseName(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, ".py")
}

var _ extractor.Extractor = (*Extractor)(nil)
