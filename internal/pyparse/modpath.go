package pyparse

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotPyFile reports a path that does not name a Python source file.
var ErrNotPyFile = errors.New("pyparse: not a .py file")

// ModulePath converts a filesystem path to the dotted module name Python
// would import it as. Package membership is decided by __init__.py markers:
// the walk climbs ancestor directories and stops at the first one without a
// marker.
//
//	.../html2text/config.py            -> html2text.config
//	.../locale/cs/__init__.py          -> django.conf.locale.cs (markers up to django/)
//	.../site-packages/split.py         -> split (no markers)
func ModulePath(path string) (string, error) {
	if !strings.HasSuffix(path, ".py") {
		return "", ErrNotPyFile
	}

	dir, file := filepath.Split(path)
	var components []string
	if file != "__init__.py" {
		components = append(components, strings.TrimSuffix(file, ".py"))
	}

	dir = filepath.Clean(dir)
	for {
		if _, err := os.Stat(filepath.Join(dir, "__init__.py")); err != nil {
			break
		}
		components = append(components, filepath.Base(dir))
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	// components were gathered innermost first.
	for i, j := 0, len(components)-1; i < j; i, j = i+1, j-1 {
		components[i], components[j] = components[j], components[i]
	}
	return strings.Join(components, "."), nil
}
