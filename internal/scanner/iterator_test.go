package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("pass\n"), 0o644))
	}
}

func collect(it *Iterator) []Entry {
	var out []Entry
	for {
		e, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, e)
	}
}

func relPaths(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = filepath.ToSlash(e.RelPath)
	}
	sort.Strings(out)
	return out
}

func TestIteratorFindsNestedSources(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"top.py",
		"pkg/__init__.py",
		"pkg/mod.py",
		"pkg/sub/deep.py",
		"pkg/readme.txt",
		"pkg/data.pyc",
	)

	entries := collect(NewIterator([]string{root}, nil))
	assert.Equal(t, []string{
		"pkg/__init__.py",
		"pkg/mod.py",
		"pkg/sub/deep.py",
		"top.py",
	}, relPaths(entries))
	for _, e := range entries {
		assert.Equal(t, root, e.Root)
	}
}

func TestIteratorSkipsMissingRoots(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "mod.py")

	missing := filepath.Join(root, "does-not-exist")
	entries := collect(NewIterator([]string{missing, root}, nil))
	assert.Equal(t, []string{"mod.py"}, relPaths(entries))
}

func TestIteratorMultipleRoots(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	writeFiles(t, rootA, "a.py")
	writeFiles(t, rootB, "b.py")

	entries := collect(NewIterator([]string{rootA, rootB}, nil))
	require.Len(t, entries, 2)
	assert.Equal(t, rootA, entries[0].Root)
	assert.Equal(t, rootB, entries[1].Root)
}

func TestIteratorExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"mod.py",
		"test_mod.py",
		"pkg/test_deep.py",
		"pkg/keep.py",
	)

	entries := collect(NewIterator([]string{root}, []string{"**/test_*.py", "test_*.py"}))
	assert.Equal(t, []string{"mod.py", "pkg/keep.py"}, relPaths(entries))
}

func TestIteratorEmpty(t *testing.T) {
	entries := collect(NewIterator(nil, nil))
	assert.Empty(t, entries)

	_, ok := NewIterator([]string{t.TempDir()}, nil).Next()
	assert.False(t, ok)
}

func TestEntryAbsPath(t *testing.T) {
	e := Entry{Root: filepath.Join("a", "b"), RelPath: filepath.Join("c", "d.py")}
	assert.Equal(t, filepath.Join("a", "b", "c", "d.py"), e.AbsPath())
}
