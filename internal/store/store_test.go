package store

import (
	"os"
	"reflect"
	"testing"

	"github.com/ttiimm/log2src/internal/index"
	"github.com/ttiimm/log2src/internal/source"
)

func testIndex(digest index.Digest) *index.Index {
	x := index.New()
	x.Insert(&source.LogTemplate{
		Segments: []source.Segment{
			source.Lit("Hello from foo i="),
			source.Ph(source.Positional, "{}", "i"),
		},
		Level: source.LevelDebug,
		SrcRef: source.SourceRef{
			SourcePath: "src/Basic.java", LineNumber: 3, Column: 9, Name: "foo",
		},
	})
	x.Insert(&source.LogTemplate{
		Segments: []source.Segment{source.Lit("starting")},
		Level:    source.LevelInfo,
		SrcRef:   source.SourceRef{SourcePath: "src/Run.java", LineNumber: 8, Column: 9, Name: "run"},
	})
	x.Freeze(digest)
	return x
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	root := t.TempDir()
	idx := testIndex("digest-1")

	if err := Save(root, idx); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, ok := Load(root, "digest-1")
	if !ok {
		t.Fatal("Load() did not accept a fresh store")
	}
	if loaded.Len() != idx.Len() {
		t.Fatalf("loaded %d templates, want %d", loaded.Len(), idx.Len())
	}
	for i, want := range idx.Templates() {
		got := loaded.Templates()[i]
		if !reflect.DeepEqual(got.SrcRef, want.SrcRef) {
			t.Errorf("template %d srcRef = %+v, want %+v", i, got.SrcRef, want.SrcRef)
		}
		if got.Fingerprint() != want.Fingerprint() {
			t.Errorf("template %d fingerprint = %q, want %q", i, got.Fingerprint(), want.Fingerprint())
		}
		if got.Level != want.Level {
			t.Errorf("template %d level = %q, want %q", i, got.Level, want.Level)
		}
	}
}

func TestLoad_DigestMismatchRebuilds(t *testing.T) {
	root := t.TempDir()
	if err := Save(root, testIndex("digest-1")); err != nil {
		t.Fatal(err)
	}
	if _, ok := Load(root, "digest-2"); ok {
		t.Error("Load() accepted a stale digest")
	}
}

func TestLoad_MissingStore(t *testing.T) {
	if _, ok := Load(t.TempDir(), "any"); ok {
		t.Error("Load() accepted a missing store")
	}
}

func TestLoad_CorruptStoreIsNotAnError(t *testing.T) {
	root := t.TempDir()
	if err := writeFile(Path(root), "not a sqlite database at all"); err != nil {
		t.Fatal(err)
	}
	if _, ok := Load(root, "any"); ok {
		t.Error("Load() accepted a corrupt store")
	}
}

func TestSave_Overwrites(t *testing.T) {
	root := t.TempDir()
	if err := Save(root, testIndex("digest-1")); err != nil {
		t.Fatal(err)
	}
	if err := Save(root, testIndex("digest-2")); err != nil {
		t.Fatalf("second Save() error: %v", err)
	}
	if _, ok := Load(root, "digest-2"); !ok {
		t.Error("Load() did not see the overwritten store")
	}
}

func TestVersionCompatible(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"1.0.0", true},
		{"1.3.7", true},
		{"2.0.0", false},
		{"0.9.0", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		if got := versionCompatible(tt.version); got != tt.want {
			t.Errorf("versionCompatible(%q) = %v, want %v", tt.version, got, tt.want)
		}
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
