// Package scanner walks Python search-path roots and yields every reachable
// .py source file.
package scanner

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/davidrios/pyimportls/internal/debug"
)

// Entry is one discovered source file: the search root it was found under
// and its path relative to that root.
type Entry struct {
	Root    string
	RelPath string
}

// AbsPath returns the joined filesystem path.
func (e Entry) AbsPath() string {
	return filepath.Join(e.Root, e.RelPath)
}

type pending struct {
	root string
	rel  string // "" for the root itself
}

// Iterator lazily enumerates .py files under an ordered list of roots.
// Single consumer. Missing or unreadable directories are skipped: sys.path
// routinely contains stale entries and one bad directory must not abort the
// scan.
type Iterator struct {
	excludes []string
	dirs     []pending // depth-first stack of directories to read
	files    []Entry   // discovered in the current directory, pending yield
}

// NewIterator builds an iterator over roots. excludes are doublestar globs
// matched against the root-relative path; matching files are skipped.
func NewIterator(roots []string, excludes []string) *Iterator {
	it := &Iterator{excludes: excludes}
	// Reverse so that popping from the stack tail preserves root order.
	for i := len(roots) - 1; i >= 0; i-- {
		it.dirs = append(it.dirs, pending{root: roots[i]})
	}
	return it
}

// Next returns the next .py file, or ok=false when the walk is done.
func (it *Iterator) Next() (Entry, bool) {
	for {
		if n := len(it.files); n > 0 {
			e := it.files[n-1]
			it.files = it.files[:n-1]
			return e, true
		}
		n := len(it.dirs)
		if n == 0 {
			return Entry{}, false
		}
		dir := it.dirs[n-1]
		it.dirs = it.dirs[:n-1]
		it.readDir(dir)
	}
}

func (it *Iterator) readDir(dir pending) {
	path := filepath.Join(dir.root, dir.rel)
	entries, err := os.ReadDir(path)
	if err != nil {
		if !os.IsNotExist(err) {
			debug.Logf("scan", "skipping unreadable directory %s: %v", path, err)
		}
		return
	}
	for i := len(entries) - 1; i >= 0; i-- {
		ent := entries[i]
		rel := filepath.Join(dir.rel, ent.Name())
		switch {
		case ent.IsDir():
			it.dirs = append(it.dirs, pending{root: dir.root, rel: rel})
		case ent.Type().IsRegular() && filepath.Ext(ent.Name()) == ".py":
			if it.excluded(rel) {
				continue
			}
			it.files = append(it.files, Entry{Root: dir.root, RelPath: rel})
		}
	}
}

func (it *Iterator) excluded(rel string) bool {
	slashed := filepath.ToSlash(rel)
	for _, pattern := range it.excludes {
		if ok, err := doublestar.Match(pattern, slashed); err == nil && ok {
			return true
		}
	}
	return false
}
