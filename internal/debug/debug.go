// Package debug provides opt-in diagnostic logging for the scan and parse
// stages. Output is disabled unless a writer is installed, so the hot
// path costs one atomic load in the common case.
package debug

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var (
	mu      sync.Mutex
	out     io.Writer
	enabled atomic.Bool
)

// SetOutput installs a writer for debug output. Pass nil to disable.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	enabled.Store(w != nil)
}

// Logf writes one debug line tagged with a category ("scan",
// "parse"). No-op unless SetOutput installed a writer.
func Logf(category, format string, args ...any) {
	if !enabled.Load() {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if out == nil {
		return
	}
	fmt.Fprintf(out, "%s [%s] %s\n",
		time.Now().Format("15:04:05.000"), category, fmt.Sprintf(format, args...))
}
