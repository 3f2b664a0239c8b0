package changelog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"driftwatch/internal/types"
)

// Tail follows a changelog directory and delivers records appended
// after the tail was created. Records already on disk are never
// replayed.
type Tail struct {
	dir     string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// delivered counts parsed entries already sent per day file, so a
	// rewritten partial line is picked up on the next write event.
	delivered map[string]int
	out       chan types.ChangeDetail
}

func NewTail(dir string, logger *slog.Logger) (*Tail, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create changelog dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	t := &Tail{
		dir:       dir,
		watcher:   watcher,
		logger:    logger,
		delivered: make(map[string]int),
		out:       make(chan types.ChangeDetail, 64),
	}
	t.prime()
	return t, nil
}

// Entries is the delivery channel. It closes when Run returns.
func (t *Tail) Entries() <-chan types.ChangeDetail {
	return t.out
}

// Run blocks delivering appended records until ctx is canceled.
func (t *Tail) Run(ctx context.Context) error {
	defer close(t.out)
	defer t.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-t.watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".jsonl") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			t.emit(ctx, event.Name)
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return nil
			}
			t.logger.Warn("changelog tail watcher error", "error", err)
		}
	}
}

// prime records how many entries each existing day file already holds.
func (t *Tail) prime() {
	paths, err := filepath.Glob(filepath.Join(t.dir, "*.jsonl"))
	if err != nil {
		return
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		t.delivered[path] = len(parseLines(fileStem(path), data))
	}
}

func (t *Tail) emit(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		t.logger.Warn("changelog tail read failed", "path", path, "error", err)
		return
	}
	entries := parseLines(fileStem(path), data)
	for i := t.delivered[path]; i < len(entries); i++ {
		select {
		case <-ctx.Done():
			return
		case t.out <- entries[i]:
		}
	}
	t.delivered[path] = len(entries)
}
