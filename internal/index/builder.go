package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/ttiimm/log2src/internal/lang"
	"github.com/ttiimm/log2src/internal/source"
)

// skipDirs are directory names never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"__pycache__":  true,
	".idea":        true,
	".vscode":      true,
}

// Warning records a file-scope extraction failure. Indexing continues;
// matches that would have referred to the file become unmatched instead
// of incorrect.
type Warning struct {
	Path string
	Err  error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %v", w.Path, w.Err)
}

// Builder walks one or more source roots and populates an Index. Later
// roots shadow earlier ones when the same relative path appears twice.
type Builder struct {
	roots    []string
	registry *lang.Registry
	// ignore holds doublestar patterns matched against root-relative
	// paths.
	ignore  []string
	workers int
}

// NewBuilder creates a builder over the given roots.
func NewBuilder(roots []string, registry *lang.Registry) *Builder {
	return &Builder{
		roots:    roots,
		registry: registry,
		workers:  runtime.NumCPU(),
	}
}

// Ignore adds doublestar glob patterns to exclude from the walk.
func (b *Builder) Ignore(patterns ...string) *Builder {
	b.ignore = append(b.ignore, patterns...)
	return b
}

// indexedFile is one source file selected by the walk.
type indexedFile struct {
	path    string // as recorded in SourceRefs
	relPath string // relative to its root, the shadowing key
	mtime   int64
	size    int64
}

// Build walks the roots, fans extraction out over a worker pool, and
// returns a frozen index. Each worker parses into a private slot; results
// merge once at the end, so the index itself sees a single writer.
// Cancellation is observed at file-boundary granularity.
func (b *Builder) Build(ctx context.Context) (*Index, []Warning, error) {
	files, err := b.collect()
	if err != nil {
		return nil, nil, err
	}

	results := make([][]source.LogTemplate, len(files))
	warnSlots := make([]*Warning, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(f.path)
			if err != nil {
				warnSlots[i] = &Warning{Path: f.path, Err: err}
				return nil
			}
			ext := b.registry.ForPath(f.path)
			tmpls, err := ext.Extract(data, f.path)
			if err != nil {
				warnSlots[i] = &Warning{Path: f.path, Err: err}
				return nil
			}
			results[i] = tmpls
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	idx := New()
	var warnings []Warning
	for i := range files {
		if warnSlots[i] != nil {
			warnings = append(warnings, *warnSlots[i])
			continue
		}
		for j := range results[i] {
			idx.Insert(&results[i][j])
		}
	}
	idx.Freeze(digestOf(files))
	return idx, warnings, nil
}

// LiveDigest computes the tree digest without parsing anything, for cheap
// cache-validity checks against a stored index.
func (b *Builder) LiveDigest() (Digest, error) {
	files, err := b.collect()
	if err != nil {
		return "", err
	}
	return digestOf(files), nil
}

// collect walks every root and returns the selected files in
// deterministic order, later roots shadowing earlier on relative path.
func (b *Builder) collect() ([]indexedFile, error) {
	byRel := make(map[string]indexedFile)
	readable := 0

	for _, root := range b.roots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}
		readable++

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // unreadable entries are skipped, not fatal
			}
			if d.IsDir() {
				if skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if b.registry.ForPath(path) == nil {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)
			for _, pattern := range b.ignore {
				if ok, _ := doublestar.Match(pattern, rel); ok {
					return nil
				}
			}
			fi, err := d.Info()
			if err != nil {
				return nil
			}
			byRel[rel] = indexedFile{
				path:    path,
				relPath: rel,
				mtime:   fi.ModTime().UnixNano(),
				size:    fi.Size(),
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}

	if readable == 0 {
		return nil, fmt.Errorf("no source root resolves to a readable directory")
	}

	files := make([]indexedFile, 0, len(byRel))
	for _, f := range byRel {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].relPath < files[j].relPath })
	return files, nil
}

// digestOf hashes the (path, mtime, size) tuples of the selected files.
func digestOf(files []indexedFile) Digest {
	h := sha256.New()
	for _, f := range files {
		fmt.Fprintf(h, "%s\x00%d\x00%d\x00", f.relPath, f.mtime, f.size)
	}
	return Digest(hex.EncodeToString(h.Sum(nil)))
}
