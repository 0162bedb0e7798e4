package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ttiimm/log2src/internal/lang"
	"github.com/ttiimm/log2src/internal/source"
)

func tmpl(path string, line int, segs ...source.Segment) *source.LogTemplate {
	return &source.LogTemplate{
		Segments: segs,
		SrcRef:   source.SourceRef{SourcePath: path, LineNumber: line, Column: 1, Name: "f"},
	}
}

func TestIndex_LookupLongestPrefix(t *testing.T) {
	x := New()
	starting := tmpl("a.go", 10, source.Lit("starting"))
	started := tmpl("a.go", 11, source.Lit("started"))
	x.Insert(starting)
	x.Insert(started)
	x.Freeze("d")

	got := x.Lookup("starting")
	if len(got) != 1 || got[0] != starting {
		t.Fatalf("Lookup(starting) = %+v, want the starting template", got)
	}

	got = x.Lookup("started")
	if len(got) != 1 || got[0] != started {
		t.Fatalf("Lookup(started) = %+v, want the started template", got)
	}
}

func TestIndex_DynamicFallback(t *testing.T) {
	x := New()
	dynamic := tmpl("a.go", 1, source.Ph(source.Positional, "{}", "msg"))
	tokened := tmpl("b.go", 2, source.Lit("batch: "), source.Ph(source.Positional, "{}", "n"), source.Lit(" items loaded"))
	unrelated := tmpl("c.go", 3, source.Lit("zzz nothing shared"))
	x.Insert(dynamic)
	x.Insert(tokened)
	x.Insert(unrelated)
	x.Freeze("d")

	got := x.Lookup("17 items loaded")
	if len(got) != 2 {
		t.Fatalf("Lookup() returned %d candidates, want 2 (dynamic + token hit)", len(got))
	}
	if got[0] != dynamic || got[1] != tokened {
		t.Errorf("candidates = %+v", got)
	}
}

func TestIndex_DeterministicOrder(t *testing.T) {
	x := New()
	b := tmpl("b.go", 5, source.Lit("msg"))
	a2 := tmpl("a.go", 9, source.Lit("msg"))
	a1 := tmpl("a.go", 3, source.Lit("msg"))
	x.Insert(b)
	x.Insert(a2)
	x.Insert(a1)
	x.Freeze("d")

	got := x.Lookup("msg")
	if len(got) != 3 {
		t.Fatalf("candidates = %d, want 3", len(got))
	}
	if got[0] != a1 || got[1] != a2 || got[2] != b {
		t.Error("candidates not ordered by (sourcePath, lineNumber)")
	}
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

const javaSrc = `public class Basic {
    void foo() {
        logger.fine("Hello from foo i={}", i);
    }
}
`

func TestBuilder_Build(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/Basic.java": javaSrc,
		"README.md":      "not source",
	})

	b := NewBuilder([]string{root}, lang.DefaultRegistry())
	idx, warnings, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %+v", warnings)
	}
	if idx.Len() != 1 {
		t.Fatalf("indexed %d templates, want 1", idx.Len())
	}
	if idx.Digest() == "" {
		t.Error("digest is empty")
	}
}

func TestBuilder_DigestChangesWithMtime(t *testing.T) {
	root := writeTree(t, map[string]string{"src/Basic.java": javaSrc})
	b := NewBuilder([]string{root}, lang.DefaultRegistry())

	d1, err := b.LiveDigest()
	if err != nil {
		t.Fatal(err)
	}

	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(filepath.Join(root, "src/Basic.java"), future, future); err != nil {
		t.Fatal(err)
	}

	d2, err := b.LiveDigest()
	if err != nil {
		t.Fatal(err)
	}
	if d1 == d2 {
		t.Error("digest did not change after mtime touch")
	}
}

func TestBuilder_LaterRootShadows(t *testing.T) {
	first := writeTree(t, map[string]string{"src/Basic.java": javaSrc})
	second := writeTree(t, map[string]string{"src/Basic.java": `public class Basic {
    void foo() {
        logger.info("shadowed template");
    }
}
`})

	b := NewBuilder([]string{first, second}, lang.DefaultRegistry())
	idx, _, err := b.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 1 {
		t.Fatalf("indexed %d templates, want 1 (shadowed)", idx.Len())
	}
	if got := idx.Templates()[0].Fingerprint(); got != "shadowed template" {
		t.Errorf("fingerprint = %q, want the later root's template", got)
	}
}

func TestBuilder_NoReadableRoot(t *testing.T) {
	b := NewBuilder([]string{"/does/not/exist"}, lang.DefaultRegistry())
	if _, _, err := b.Build(context.Background()); err == nil {
		t.Error("Build() with no readable root should fail")
	}
}

func TestBuilder_IgnorePatterns(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/Basic.java":      javaSrc,
		"test/BasicTest.java": javaSrc,
	})
	b := NewBuilder([]string{root}, lang.DefaultRegistry()).Ignore("test/**")
	idx, _, err := b.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 1 {
		t.Errorf("indexed %d templates, want 1 after ignore", idx.Len())
	}
}
