// Package indexer drives a scan: it discovers the interpreter's search
// path, walks it for Python sources and fans the parse work out across the
// worker pool, aggregating per-file symbol results.
package indexer

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/davidrios/pyimportls/internal/arena"
	"github.com/davidrios/pyimportls/internal/debug"
	"github.com/davidrios/pyimportls/internal/pool"
	"github.com/davidrios/pyimportls/internal/pypath"
	"github.com/davidrios/pyimportls/internal/pyparse"
	"github.com/davidrios/pyimportls/internal/scanner"
)

// maxFileSize bounds the per-file scratch arena. Larger sources are skipped;
// nothing that size is a hand-written module worth suggesting imports from.
const maxFileSize = 16 << 20

// Arena sizing: geometric growth from a small first segment needs headroom
// beyond the largest single allocation before a segment that size exists.
const (
	initialArenaSize = 64 << 10
	arenaCap         = 3 * maxFileSize
)

// SymbolInfo is one exported name, copied out of the parse buffer.
type SymbolInfo struct {
	Kind pyparse.SymbolKind
	Name string
}

// FileResult is the outcome of one parse job.
type FileResult struct {
	Path    string
	Module  string
	Symbols []SymbolInfo
	// Duplicate marks a file whose contents already ran through extraction
	// under another root.
	Duplicate bool
	Err       error
}

// Stats summarizes a completed run.
type Stats struct {
	Files      int
	Duplicates int
	Errors     int
	Symbols    int
}

// Options tunes a run.
type Options struct {
	// Workers bounds the parse pool; must be at least 1.
	Workers int
	// Exclude holds doublestar globs applied to root-relative paths.
	Exclude []string
	// Report, when set, receives every file result from the collector
	// goroutine (never concurrently).
	Report func(FileResult)
}

// job carries one file through the pool. The embedded task makes scheduling
// allocation-free beyond the job itself.
type job struct {
	task  pool.Task
	run   *run
	entry scanner.Entry
}

type run struct {
	results chan FileResult
	jobs    sync.WaitGroup
	seen    sync.Map // xxhash of file contents -> struct{}
}

// Run scans the interpreter's import path and returns aggregate statistics.
// Per-file failures are reported and counted, never fatal; only interpreter
// invocation failure aborts the run.
func Run(ctx context.Context, interpreter string, opts Options) (Stats, error) {
	roots, err := pypath.Discover(ctx, interpreter)
	if err != nil {
		return Stats{}, err
	}
	debug.Logf("scan", "discovered %d search roots", len(roots))

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	p := pool.New(pool.Config{MaxWorkers: uint32(workers)})

	r := &run{results: make(chan FileResult, 256)}

	var stats Stats
	var g errgroup.Group
	g.Go(func() error {
		for res := range r.results {
			stats.Files++
			if res.Err != nil {
				stats.Errors++
			}
			if res.Duplicate {
				stats.Duplicates++
			}
			stats.Symbols += len(res.Symbols)
			if opts.Report != nil {
				opts.Report(res)
			}
		}
		return nil
	})

	it := scanner.NewIterator(roots, opts.Exclude)
	for {
		entry, ok := it.Next()
		if !ok {
			break
		}
		if ctx.Err() != nil {
			break
		}
		j := &job{run: r, entry: entry}
		j.task.Callback = j.execute
		r.jobs.Add(1)
		p.Schedule(pool.NewBatch(&j.task))
	}

	r.jobs.Wait()
	p.Shutdown()
	p.Join()
	close(r.results)
	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, ctx.Err()
}

func (j *job) execute(_ *pool.Worker, _ *pool.Task) {
	defer j.run.jobs.Done()
	j.run.results <- j.process()
}

func (j *job) process() FileResult {
	path := j.entry.AbsPath()
	res := FileResult{Path: path}

	a, err := arena.New(initialArenaSize, arenaCap)
	if err != nil {
		res.Err = err
		return res
	}
	defer a.Release()

	source, err := readSource(a, path)
	if err != nil {
		debug.Logf("parse", "skipping %s: %v", path, err)
		res.Err = err
		return res
	}

	// Identical bodies show up under overlapping sys.path roots; extract
	// each body once.
	digest := xxhash.Sum64(source)
	if _, dup := j.run.seen.LoadOrStore(digest, struct{}{}); dup {
		res.Duplicate = true
		return res
	}

	handle, err := pyparse.Parse(source)
	if err != nil {
		debug.Logf("parse", "no tree for %s: %v", path, err)
		res.Err = err
		return res
	}
	defer handle.Close()

	symbols, err := handle.Symbols()
	if err != nil {
		res.Err = err
		return res
	}
	for _, s := range symbols {
		res.Symbols = append(res.Symbols, SymbolInfo{Kind: s.Kind, Name: string(s.Name)})
	}

	if module, err := pyparse.ModulePath(path); err == nil {
		res.Module = module
	} else {
		res.Err = err
	}
	return res
}

// readSource loads a file into job-scoped arena scratch. Symbol names alias
// the buffer, so callers copy them out before the arena is released.
func readSource(a *arena.Arena, path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size > maxFileSize {
		return nil, fmt.Errorf("indexer: %s exceeds %d bytes", path, int(maxFileSize))
	}

	buf := a.Alloc(int(size), 1)
	if buf == nil {
		return nil, fmt.Errorf("indexer: arena exhausted reading %s", path)
	}
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
