// Package pypath discovers a Python installation's import search path by
// asking the interpreter itself.
package pypath

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"
)

// sysPathProgram prints each sys.path entry on its own line.
const sysPathProgram = "import sys\nfor p in sys.path: print(p)"

// CommandError reports an interpreter invocation that did not exit cleanly.
type CommandError struct {
	Interpreter string
	ExitCode    int
	Stderr      string
	Err         error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("pypath: %s exited with code %d: %s", e.Interpreter, e.ExitCode, strings.TrimSpace(e.Stderr))
	}
	return fmt.Sprintf("pypath: %s failed: %v", e.Interpreter, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Discover runs the interpreter and returns its search path entries,
// dropping blanks and the entries that can never contain .py sources:
// zipped stdlib archives and lib-dynload extension directories.
func Discover(ctx context.Context, interpreter string) ([]string, error) {
	cmd := exec.CommandContext(ctx, interpreter, "-c", sysPathProgram)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("pypath: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("pypath: stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, &CommandError{Interpreter: interpreter, ExitCode: -1, Err: err}
	}

	var outBuf, errBuf bytes.Buffer
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := io.Copy(&outBuf, stdout)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&errBuf, stderr)
		return err
	})
	copyErr := g.Wait()
	waitErr := cmd.Wait()

	if waitErr != nil {
		code := -1
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
		return nil, &CommandError{
			Interpreter: interpreter,
			ExitCode:    code,
			Stderr:      errBuf.String(),
			Err:         waitErr,
		}
	}
	if copyErr != nil {
		return nil, fmt.Errorf("pypath: reading interpreter output: %w", copyErr)
	}

	return filterEntries(outBuf.String()), nil
}

func filterEntries(out string) []string {
	var entries []string
	for _, line := range strings.Split(out, "\n") {
		entry := strings.TrimRight(line, "\r")
		if entry == "" {
			continue
		}
		if strings.HasSuffix(entry, ".zip") || strings.HasSuffix(entry, "lib-dynload") {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
