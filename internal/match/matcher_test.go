package match

import (
	"io"
	"strings"
	"testing"

	"github.com/ttiimm/log2src/internal/index"
	"github.com/ttiimm/log2src/internal/layout"
	"github.com/ttiimm/log2src/internal/logparse"
	"github.com/ttiimm/log2src/internal/source"
)

func buildIndex(tmpls ...*source.LogTemplate) *index.Index {
	x := index.New()
	for _, t := range tmpls {
		x.Insert(t)
	}
	x.Freeze("test")
	return x
}

func record(t *testing.T, line string) *logparse.Record {
	t.Helper()
	sc := logparse.NewScanner(strings.NewReader(line+"\n"), layout.Default())
	rec, err := sc.Next()
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	return rec
}

func TestMap_SingleVariable(t *testing.T) {
	tmpl := &source.LogTemplate{
		Segments: []source.Segment{
			source.Lit("Hello from foo i="),
			source.Ph(source.Positional, "{}", "i"),
		},
		Level: source.LevelDebug,
		SrcRef: source.SourceRef{
			SourcePath: "src/Basic.java", LineNumber: 3, Column: 9, Name: "foo",
		},
	}
	m := New(buildIndex(tmpl))

	got := m.Map(record(t, "2025-01-01 00:00:00 FINE basic foo: Hello from foo i=2"))
	if got.SrcRef.Name != "foo" {
		t.Errorf("srcRef.name = %q, want foo", got.SrcRef.Name)
	}
	if got.SrcRef.LineNumber != 3 {
		t.Errorf("srcRef.lineNumber = %d, want 3", got.SrcRef.LineNumber)
	}
	if len(got.Variables) != 1 || got.Variables["i"] != "2" {
		t.Errorf("variables = %+v, want {i: 2}", got.Variables)
	}
	if len(got.Stack) != 0 {
		t.Errorf("stack = %+v, want empty", got.Stack)
	}
}

func TestMap_DisambiguationByLiteralPrefix(t *testing.T) {
	starting := &source.LogTemplate{
		Segments: []source.Segment{source.Lit("starting")},
		SrcRef:   source.SourceRef{SourcePath: "a.go", LineNumber: 10, Column: 2, Name: "run"},
	}
	started := &source.LogTemplate{
		Segments: []source.Segment{source.Lit("started")},
		SrcRef:   source.SourceRef{SourcePath: "a.go", LineNumber: 12, Column: 2, Name: "run"},
	}
	m := New(buildIndex(starting, started)).Verbose(true)

	got := m.Map(record(t, "2025-01-01 00:00:00 INFO starting"))
	if got.SrcRef.LineNumber != 10 {
		t.Errorf("selected line %d, want 10 (the starting template)", got.SrcRef.LineNumber)
	}
	if got.Score == nil || *got.Score <= DefaultThreshold {
		t.Errorf("score = %v, want above threshold", got.Score)
	}
}

func TestMap_UnmatchedSentinel(t *testing.T) {
	tmpl := &source.LogTemplate{
		Segments: []source.Segment{source.Lit("starting")},
		SrcRef:   source.SourceRef{SourcePath: "a.go", LineNumber: 10, Column: 2, Name: "run"},
	}
	m := New(buildIndex(tmpl))

	got := m.Map(record(t, "2025-01-01 00:00:00 INFO completely unknown text xyzzy"))
	if got.SrcRef.Name != "???" || got.SrcRef.LineNumber != -1 {
		t.Errorf("srcRef = %+v, want the unmatched sentinel", got.SrcRef)
	}
	if len(got.Variables) != 0 {
		t.Errorf("variables = %+v, want empty", got.Variables)
	}
	if len(got.Stack) != 0 {
		t.Errorf("stack = %+v, want empty", got.Stack)
	}
}

func TestMap_TieBreakBySourcePathThenLine(t *testing.T) {
	mk := func(path string, line int) *source.LogTemplate {
		return &source.LogTemplate{
			Segments: []source.Segment{source.Lit("identical text")},
			SrcRef:   source.SourceRef{SourcePath: path, LineNumber: line, Column: 1, Name: "f"},
		}
	}
	m := New(buildIndex(mk("b.go", 1), mk("a.go", 20), mk("a.go", 4)))

	got := m.Map(record(t, "2025-01-01 00:00:00 INFO identical text"))
	if got.SrcRef.SourcePath != "a.go" || got.SrcRef.LineNumber != 4 {
		t.Errorf("srcRef = %+v, want a.go:4", got.SrcRef)
	}
}

func TestMap_ExceptionChain(t *testing.T) {
	barTmpl := &source.LogTemplate{
		Segments: []source.Segment{source.Lit("in bar")},
		SrcRef:   source.SourceRef{SourcePath: "src/a/b/Foo.java", LineNumber: 11, Column: 9, Name: "bar"},
	}
	quuxTmpl := &source.LogTemplate{
		Segments: []source.Segment{source.Lit("in quux")},
		SrcRef:   source.SourceRef{SourcePath: "src/a/b/Qux.java", LineNumber: 6, Column: 9, Name: "quux"},
	}
	m := New(buildIndex(barTmpl, quuxTmpl))

	input := "2025-01-01 00:00:00 ERROR request failed\n" +
		"java.lang.RuntimeException: outer\n" +
		"    at a.b.Foo.bar(Foo.java:12)\n" +
		"    at a.b.Foo.bar(Foo.java:30)\n" +
		"Caused by: java.lang.IllegalStateException: inner\n" +
		"    at a.b.Qux.quux(Qux.java:7)\n"
	sc := logparse.NewScanner(strings.NewReader(input), layout.Default())
	rec, err := sc.Next()
	if err != nil && err != io.EOF {
		t.Fatal(err)
	}

	got := m.Map(rec)
	if len(got.Stack) != 2 {
		t.Fatalf("stack has %d blocks, want 2", len(got.Stack))
	}
	if len(got.Stack[0]) != 2 || len(got.Stack[1]) != 1 {
		t.Fatalf("block sizes = %d,%d want 2,1", len(got.Stack[0]), len(got.Stack[1]))
	}

	first := got.Stack[0][0]
	if first.SourcePath != "src/a/b/Foo.java" || first.LineNumber != 12 || first.Name != "bar" {
		t.Errorf("frame 0 = %+v, want Foo.java:12 in bar", first)
	}

	// Frame at line 30 is outside the proximity window but still in the
	// same function: resolved to the function's call site path.
	second := got.Stack[0][1]
	if second.SourcePath != "src/a/b/Foo.java" || second.Name != "bar" {
		t.Errorf("frame 1 = %+v, want resolved into bar", second)
	}

	cause := got.Stack[1][0]
	if cause.SourcePath != "src/a/b/Qux.java" || cause.LineNumber != 7 {
		t.Errorf("cause frame = %+v, want Qux.java:7", cause)
	}
}

func TestMap_UnresolvedFrameSentinel(t *testing.T) {
	m := New(buildIndex())
	input := "2025-01-01 00:00:00 ERROR failed\n" +
		"java.lang.RuntimeException: boom\n" +
		"    at x.y.Missing.gone(Missing.java:99)\n"
	sc := logparse.NewScanner(strings.NewReader(input), layout.Default())
	rec, err := sc.Next()
	if err != nil && err != io.EOF {
		t.Fatal(err)
	}

	got := m.Map(rec)
	if len(got.Stack) != 1 || len(got.Stack[0]) != 1 {
		t.Fatalf("stack = %+v", got.Stack)
	}
	frame := got.Stack[0][0]
	if frame.Name != "???" || frame.LineNumber != -1 {
		t.Errorf("frame = %+v, want sentinel", frame)
	}
	if frame.SourcePath != "Missing.java" {
		t.Errorf("sentinel keeps raw file, got %q", frame.SourcePath)
	}
}

// Round-trip: format a line from a template, parse it, match it, recover
// the same template and values.
func TestMap_RoundTrip(t *testing.T) {
	tmpl := &source.LogTemplate{
		Segments: []source.Segment{
			source.Lit("copied "),
			source.Ph(source.Positional, "{}", "n"),
			source.Lit(" files to "),
			source.Ph(source.Positional, "{}", "dest"),
		},
		Level:  source.LevelInfo,
		SrcRef: source.SourceRef{SourcePath: "cp.go", LineNumber: 42, Column: 2, Name: "copyAll"},
	}
	m := New(buildIndex(tmpl))

	values := [][2]string{
		{"7", "/tmp/out"},
		{"12345", "backup"},
		{"x", "y"},
	}
	for _, v := range values {
		line := "2025-01-01 00:00:00 INFO copied " + v[0] + " files to " + v[1]
		got := m.Map(record(t, line))
		if got.SrcRef.LineNumber != 42 {
			t.Fatalf("line %q did not recover the template: %+v", line, got.SrcRef)
		}
		if got.Variables["n"] != v[0] || got.Variables["dest"] != v[1] {
			t.Errorf("line %q variables = %+v, want n=%s dest=%s", line, got.Variables, v[0], v[1])
		}
	}
}

func TestMap_EmptyBody(t *testing.T) {
	m := New(buildIndex())
	got := m.Map(&logparse.Record{Body: "   "})
	if !got.SrcRef.IsUnresolved() {
		t.Errorf("srcRef = %+v, want sentinel", got.SrcRef)
	}
}
