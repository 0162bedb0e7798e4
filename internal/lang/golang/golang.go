// Package golang extracts log templates from Go source using go/ast. It
// is the one extractor backed by a real parser; the file must parse for
// its call sites to index.
package golang

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"

	"github.com/ttiimm/log2src/internal/lang/extractor"
	"github.com/ttiimm/log2src/internal/lang/format"
	"github.com/ttiimm/log2src/internal/source"
)

// Extractor locates calls on logger-shaped receivers (log, logger, slog,
// l, ...) and the log/slog package helpers, reading their first
// string-valued argument as the template.
type Extractor struct{}

// NewExtractor creates a Go extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ID implements extractor.Extractor.
func (e *Extractor) ID() string {
	return "go"
}

// Extensions implements extractor.Extractor.
func (e *Extractor) Extensions() []string {
	return []string{".go"}
}

// Extract implements extractor.Extractor.
func (e *Extractor) Extract(src []byte, path string) ([]source.LogTemplate, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}

	w := &walker{
		fset:    fset,
		src:     src,
		path:    path,
		topName: moduleName(path),
	}
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			w.enclosing = fn.Name.Name
			ast.Inspect(fn, w.visit)
			continue
		}
		w.enclosing = w.topName
		ast.Inspect(decl, w.visit)
	}
	return w.templates, nil
}

type walker struct {
	fset      *token.FileSet
	src       []byte
	path      string
	topName   string
	enclosing string
	templates []source.LogTemplate
}

func (w *walker) visit(n ast.Node) bool {
	call, ok := n.(*ast.CallExpr)
	if !ok {
		return true
	}

	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return true
	}
	level := extractor.MethodLevel(sel.Sel.Name)
	if level == "" || !w.loggerReceiver(sel.X) {
		return true
	}
	if len(call.Args) == 0 {
		return true
	}

	segs, ok := w.formatSegments(call, sel.Sel.Name)
	if !ok {
		return true
	}

	pos := w.fset.Position(call.Pos())
	w.templates = append(w.templates, source.LogTemplate{
		Segments: segs,
		Level:    level,
		SrcRef: source.SourceRef{
			SourcePath: w.path,
			LineNumber: pos.Line,
			Column:     pos.Column,
			Name:       w.enclosing,
		},
	})
	return true
}

// loggerReceiver accepts plain logger identifiers, logger fields
// (s.logger.Info) and the log/slog/zap-style package helpers.
func (w *walker) loggerReceiver(x ast.Expr) bool {
	switch recv := x.(type) {
	case *ast.Ident:
		return extractor.IsLoggerReceiver(recv.Name) || recv.Name == "log" || recv.Name == "slog"
	case *ast.SelectorExpr:
		return extractor.IsLoggerReceiver(recv.Sel.Name)
	case *ast.CallExpr:
		// Builder chains like logger.With(...).Info(...).
		if inner, ok := recv.Fun.(*ast.SelectorExpr); ok {
			return w.loggerReceiver(inner.X)
		}
	}
	return false
}

// formatSegments turns the call's first string-valued argument into
// segments. Printf-suffixed methods parse %-conversions against the
// trailing arguments; plain methods fold +-concatenation, with each
// non-literal operand becoming a positional placeholder.
func (w *walker) formatSegments(call *ast.CallExpr, method string) ([]source.Segment, bool) {
	var captured []string
	for _, arg := range call.Args[1:] {
		captured = append(captured, extractor.Capture(w.exprText(arg)))
	}

	first := call.Args[0]
	if lit, ok := stringLit(first); ok {
		if strings.HasSuffix(strings.ToLower(method), "f") {
			return format.Printf(lit, captured), true
		}
		segs := format.Curly(lit, captured)
		return segs, true
	}

	if bin, ok := first.(*ast.BinaryExpr); ok && bin.Op == token.ADD {
		segs := w.foldConcat(bin)
		if segs != nil {
			return segs, true
		}
	}

	// Entirely dynamic first argument: a single-placeholder template that
	// lands in the index's dynamic-first bucket.
	if ident, ok := first.(*ast.Ident); ok {
		return []source.Segment{source.Ph(source.Positional, ident.Name, ident.Name)}, true
	}
	return nil, false
}

// foldConcat flattens a +-expression over strings, fusing adjacent
// literals. Returns nil when no literal operand is present at all.
func (w *walker) foldConcat(expr ast.Expr) []source.Segment {
	var segs []source.Segment
	sawLiteral := false

	var walk func(e ast.Expr)
	walk = func(e ast.Expr) {
		if bin, ok := e.(*ast.BinaryExpr); ok && bin.Op == token.ADD {
			walk(bin.X)
			walk(bin.Y)
			return
		}
		if lit, ok := stringLit(e); ok {
			segs = append(segs, source.Lit(lit))
			sawLiteral = true
			return
		}
		text := extractor.Capture(w.exprText(e))
		segs = append(segs, source.Ph(source.Positional, text, text))
	}
	walk(expr)

	if !sawLiteral {
		return nil
	}
	return source.FoldLiterals(segs)
}

// exprText slices the argument's source text out of the file bytes.
func (w *walker) exprText(e ast.Expr) string {
	file := w.fset.File(e.Pos())
	if file == nil {
		return ""
	}
	start := file.Offset(e.Pos())
	end := file.Offset(e.End())
	if start < 0 || end > len(w.src) || start >= end {
		return ""
	}
	return string(w.src[start:end])
}

func stringLit(e ast.Expr) (string, bool) {
	lit, ok := e.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	val, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return val, true
}

// moduleName is the SourceRef name for calls outside any function.
func moduleName(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, ".go")
}

var _ extractor.Extractor = (*Extractor)(nil)
