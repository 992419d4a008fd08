package pyparse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mkTree creates files (relative paths) under a fresh temp root.
func mkTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}
	return root
}

func TestModulePathPackageModule(t *testing.T) {
	root := mkTree(t,
		"html2text/__init__.py",
		"html2text/config.py",
	)
	got, err := ModulePath(filepath.Join(root, "html2text", "config.py"))
	require.NoError(t, err)
	assert.Equal(t, "html2text.config", got)
}

func TestModulePathPackageInit(t *testing.T) {
	root := mkTree(t,
		"django/__init__.py",
		"django/conf/__init__.py",
		"django/conf/locale/__init__.py",
		"django/conf/locale/cs/__init__.py",
	)
	got, err := ModulePath(filepath.Join(root, "django", "conf", "locale", "cs", "__init__.py"))
	require.NoError(t, err)
	assert.Equal(t, "django.conf.locale.cs", got)
}

func TestModulePathBareModule(t *testing.T) {
	root := mkTree(t, "site-packages/split.py")
	got, err := ModulePath(filepath.Join(root, "site-packages", "split.py"))
	require.NoError(t, err)
	assert.Equal(t, "split", got)
}

func TestModulePathStopsAtFirstUnmarkedAncestor(t *testing.T) {
	// The marker chain is broken at "gap": only the inner packages count.
	root := mkTree(t,
		"outer/__init__.py",
		"outer/gap/inner/__init__.py",
		"outer/gap/inner/mod.py",
	)
	got, err := ModulePath(filepath.Join(root, "outer", "gap", "inner", "mod.py"))
	require.NoError(t, err)
	assert.Equal(t, "inner.mod", got)
}

func TestModulePathRejectsNonPy(t *testing.T) {
	for _, path := range []string{"", "foo", "foo.pyc", "dir/file.txt"} {
		_, err := ModulePath(path)
		assert.ErrorIs(t, err, ErrNotPyFile, "path %q", path)
	}
}

func TestModulePathDeterministic(t *testing.T) {
	root := mkTree(t, "pkg/__init__.py", "pkg/mod.py")
	path := filepath.Join(root, "pkg", "mod.py")
	first, err := ModulePath(path)
	require.NoError(t, err)
	second, err := ModulePath(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
