package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ttiimm/log2src/internal/match"
	"github.com/ttiimm/log2src/internal/source"
)

func TestWriteMappings_FieldOrder(t *testing.T) {
	m := &match.Mapping{
		SrcRef:    source.SourceRef{SourcePath: "a.go", LineNumber: 3, Column: 2, Name: "foo"},
		Variables: map[string]string{"i": "2"},
		Stack:     [][]source.SourceRef{},
	}

	var buf bytes.Buffer
	if err := WriteMappings(&buf, []*match.Mapping{m}); err != nil {
		t.Fatalf("WriteMappings() error: %v", err)
	}

	got := buf.String()
	want := `{"srcRef":{"sourcePath":"a.go","lineNumber":3,"column":2,"name":"foo"},"variables":{"i":"2"},"stack":[]}` + "\n"
	if got != want {
		t.Errorf("output = %s, want %s", got, want)
	}
}

func TestWriteMappings_Stream(t *testing.T) {
	sentinel := &match.Mapping{
		SrcRef:    source.Unresolved(),
		Variables: map[string]string{},
		Stack:     [][]source.SourceRef{},
	}

	var buf bytes.Buffer
	if err := WriteMappings(&buf, []*match.Mapping{sentinel, sentinel}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], `"name":"???"`) || !strings.Contains(lines[0], `"lineNumber":-1`) {
		t.Errorf("sentinel line = %s", lines[0])
	}
}

func TestWriteMappings_NoHTMLEscaping(t *testing.T) {
	m := &match.Mapping{
		SrcRef:    source.SourceRef{SourcePath: "a.go", LineNumber: 1, Column: 1, Name: "f"},
		Variables: map[string]string{"q": "a<b&c>d"},
		Stack:     [][]source.SourceRef{},
	}
	var buf bytes.Buffer
	if err := WriteMappings(&buf, []*match.Mapping{m}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "a<b&c>d") {
		t.Errorf("output escaped HTML: %s", buf.String())
	}
}
