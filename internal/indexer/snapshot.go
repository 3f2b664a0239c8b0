package indexer

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"driftwatch/internal/types"
)

// DefaultFileTimeout bounds how long a single file retrieval may take
// before the file is treated as absent.
const DefaultFileTimeout = 10 * time.Second

// ContentSource supplies file listings and file contents for a
// revision selector. ListFiles failures are the caller's problem;
// ReadFile reports absence instead of failing, so one unreadable file
// never sinks a whole scan.
type ContentSource interface {
	ListFiles(ctx context.Context, rev string) ([]string, error)
	ReadFile(ctx context.Context, rev string, path string) ([]byte, bool)
}

// Builder produces symbol snapshots for revisions of a repository.
type Builder struct {
	source      ContentSource
	workers     int
	fileTimeout time.Duration
}

// NewBuilder wires a Builder to its content source. workers <= 0 means
// one per CPU; fileTimeout <= 0 selects DefaultFileTimeout.
func NewBuilder(source ContentSource, workers int, fileTimeout time.Duration) *Builder {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if fileTimeout <= 0 {
		fileTimeout = DefaultFileTimeout
	}
	return &Builder{
		source:      source,
		workers:     workers,
		fileTimeout: fileTimeout,
	}
}

// Snapshot builds the symbol map for every Python file at rev. Files
// that cannot be read or time out are omitted; files that read but do
// not parse appear with an empty SymbolSet. A listing failure or a
// canceled context fails the whole scan, and no partial snapshot is
// returned.
func (b *Builder) Snapshot(ctx context.Context, rev string) (types.Snapshot, error) {
	files, err := b.source.ListFiles(ctx, rev)
	if err != nil {
		return nil, fmt.Errorf("list files for %s: %w", rev, err)
	}

	snap := make(types.Snapshot, len(files))
	if len(files) == 0 {
		return snap, nil
	}

	numWorkers := min(b.workers, len(files))

	// Tree-sitter parsers are not goroutine-safe, so each worker owns
	// its own Extractor. Constructed up front: a parser that cannot be
	// built is a setup failure, not a per-file one.
	extractors := make([]*Extractor, numWorkers)
	for i := range extractors {
		ex, err := NewExtractor()
		if err != nil {
			return nil, fmt.Errorf("create extractor: %w", err)
		}
		extractors[i] = ex
	}

	workCh := make(chan string, len(files))
	for _, path := range files {
		workCh <- path
	}
	close(workCh)

	type result struct {
		path    string
		symbols types.SymbolSet
		ok      bool
	}
	resultCh := make(chan result, len(files))

	var wg sync.WaitGroup
	for _, ex := range extractors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range workCh {
				if ctx.Err() != nil {
					return
				}
				content, ok := b.readFile(ctx, rev, path)
				if !ok {
					resultCh <- result{path: path}
					continue
				}
				resultCh <- result{path: path, symbols: ex.Extract(content), ok: true}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Single writer owns the snapshot map.
	for res := range resultCh {
		if res.ok {
			snap[res.path] = res.symbols
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (b *Builder) readFile(ctx context.Context, rev, path string) ([]byte, bool) {
	fileCtx, cancel := context.WithTimeout(ctx, b.fileTimeout)
	defer cancel()
	return b.source.ReadFile(fileCtx, rev, path)
}
