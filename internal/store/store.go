// Package store persists the template index next to the source root so
// unchanged trees skip re-parsing. The store is a hint, never an
// authority: any open, version, or digest mismatch means "rebuild", and
// corruption is handled by silently overwriting.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/fxamacker/cbor/v2"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/nightlyone/lockfile"

	"github.com/ttiimm/log2src/internal/index"
	"github.com/ttiimm/log2src/internal/source"
)

const (
	// FileName is the store file, placed under the first source root.
	FileName = ".log2src.index"

	// formatVersion tags the store format. Loading accepts any store
	// whose major version matches; everything else rebuilds.
	formatVersion = "1.0.0"

	metaVersionKey = "version"
	metaDigestKey  = "digest"
)

// Path returns the store location for a source root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Load opens the store under root and reconstructs the index when its
// version is compatible and its digest equals live. ok is false — never
// an error — when the store is absent, stale, corrupt, or from an
// incompatible version.
func Load(root string, live index.Digest) (*index.Index, bool) {
	path := Path(root)
	if _, err := os.Stat(path); err != nil {
		return nil, false
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, false
	}
	defer db.Close()

	var version, digest string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = ?`, metaVersionKey).Scan(&version); err != nil {
		return nil, false
	}
	if !versionCompatible(version) {
		return nil, false
	}
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = ?`, metaDigestKey).Scan(&digest); err != nil {
		return nil, false
	}
	if index.Digest(digest) != live {
		return nil, false
	}

	rows, err := db.Query(`SELECT source_path, line, col, name, level, segments FROM templates ORDER BY id`)
	if err != nil {
		return nil, false
	}
	defer rows.Close()

	idx := index.New()
	for rows.Next() {
		var (
			t    source.LogTemplate
			blob []byte
		)
		if err := rows.Scan(&t.SrcRef.SourcePath, &t.SrcRef.LineNumber, &t.SrcRef.Column,
			&t.SrcRef.Name, &t.Level, &blob); err != nil {
			return nil, false
		}
		if err := cbor.Unmarshal(blob, &t.Segments); err != nil {
			return nil, false
		}
		idx.Insert(&t)
	}
	if rows.Err() != nil {
		return nil, false
	}
	idx.Freeze(live)
	return idx, true
}

// Save writes the frozen index atomically: built in a temp file, renamed
// over the store under a lock, so a cancelled or crashed index run leaves
// the previous store untouched.
func Save(root string, idx *index.Index) error {
	path := Path(root)

	// lockfile only accepts absolute paths; roots like "." are relative.
	lockPath, err := filepath.Abs(path + ".lock")
	if err != nil {
		return fmt.Errorf("resolving store lock path: %w", err)
	}
	lock, err := lockfile.New(lockPath)
	if err != nil {
		return fmt.Errorf("creating store lock: %w", err)
	}
	if err := lock.TryLock(); err != nil {
		return fmt.Errorf("locking store: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp := path + ".tmp"
	_ = os.Remove(tmp)
	if err := writeStore(tmp, idx); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing store: %w", err)
	}
	return nil
}

func writeStore(path string, idx *index.Index) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	schema := []string{
		`CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
		`CREATE TABLE templates (
			id INTEGER PRIMARY KEY,
			source_path TEXT NOT NULL,
			line INTEGER NOT NULL,
			col INTEGER NOT NULL,
			name TEXT NOT NULL,
			level TEXT NOT NULL,
			segments BLOB NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating store schema: %w", err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting store transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?), (?, ?)`,
		metaVersionKey, formatVersion, metaDigestKey, string(idx.Digest())); err != nil {
		return fmt.Errorf("writing store meta: %w", err)
	}

	insert, err := tx.Prepare(`INSERT INTO templates (source_path, line, col, name, level, segments)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing template insert: %w", err)
	}
	defer insert.Close()

	for _, t := range idx.Templates() {
		blob, err := cbor.Marshal(t.Segments)
		if err != nil {
			return fmt.Errorf("encoding segments: %w", err)
		}
		if _, err := insert.Exec(t.SrcRef.SourcePath, t.SrcRef.LineNumber, t.SrcRef.Column,
			t.SrcRef.Name, t.Level, blob); err != nil {
			return fmt.Errorf("writing template: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing store: %w", err)
	}
	return nil
}

// versionCompatible accepts stores whose major format version matches.
func versionCompatible(v string) bool {
	stored, err := semver.NewVersion(v)
	if err != nil {
		return false
	}
	current := semver.MustParse(formatVersion)
	return stored.Major() == current.Major()
}
