package watcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"driftwatch/internal/changelog"
	"driftwatch/internal/llm"
	"driftwatch/internal/types"
)

// DefaultInterval is the poll cadence when none is configured.
const DefaultInterval = 30 * time.Second

// GitSource is the slice of git the watcher needs: dirty-state polling
// and the raw material of a changelog record.
type GitSource interface {
	StatusPorcelain(ctx context.Context) (string, error)
	Diff(ctx context.Context) (string, error)
	CurrentBranch(ctx context.Context) (string, error)
}

// Options tune a Watcher. The zero value is usable.
type Options struct {
	// Interval between polls; DefaultInterval when zero.
	Interval time.Duration
	// GitDir is the repository's .git directory. When set, branch
	// switches kick an immediate poll instead of waiting out the
	// interval.
	GitDir string
	Logger *slog.Logger
}

// Watcher polls a repository for uncommitted changes and appends a
// summarized record to the changelog whenever the dirty state changes.
type Watcher struct {
	repo       GitSource
	writer     *changelog.Writer
	summarizer *llm.Summarizer
	logger     *slog.Logger
	interval   time.Duration
	gitDir     string

	// lastState fingerprints the most recently logged branch+diff, so
	// an unchanged dirty worktree is not re-logged every poll.
	lastState string
}

func New(repo GitSource, writer *changelog.Writer, summarizer *llm.Summarizer, opts Options) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Watcher{
		repo:       repo,
		writer:     writer,
		summarizer: summarizer,
		logger:     opts.Logger,
		interval:   opts.Interval,
		gitDir:     opts.GitDir,
	}
}

// Run polls until ctx is canceled. Failures inside one cycle are
// logged and the loop continues; only cancellation ends it.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watcher started", "interval", w.interval)
	kick := w.watchHead(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return nil
		case <-ticker.C:
			w.poll(ctx)
		case <-kick:
			w.poll(ctx)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := w.cycle(ctx); err != nil {
		w.logger.Error("watch cycle failed", "error", err)
	}
}

func (w *Watcher) cycle(ctx context.Context) error {
	porcelain, err := w.repo.StatusPorcelain(ctx)
	if err != nil {
		return err
	}
	statusLines := splitStatusLines(porcelain)
	if len(statusLines) == 0 {
		return nil
	}

	diffText, err := w.repo.Diff(ctx)
	if err != nil {
		return err
	}
	branch, err := w.repo.CurrentBranch(ctx)
	if err != nil {
		return err
	}

	state := fingerprint(branch, diffText)
	if state == w.lastState {
		return nil
	}

	entry := types.Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Branch:    branch,
		Files:     changedFiles(statusLines),
		Diff:      diffText,
		Summary:   w.summarizer.Summarize(ctx, diffText),
		Stats:     diffStats(diffText),
	}
	if err := w.writer.Append(entry); err != nil {
		return err
	}
	w.lastState = state
	w.logger.Info("logged changes", "branch", entry.Branch, "files", len(entry.Files))
	return nil
}

// fingerprint identifies one dirty state. Identical consecutive states
// are suppressed; a change that is reverted and redone logs again.
func fingerprint(branch, diff string) string {
	h := sha256.New()
	h.Write([]byte(branch))
	h.Write([]byte{0})
	h.Write([]byte(diff))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// watchHead delivers a kick whenever the repository HEAD changes. The
// returned channel is nil when no git dir is configured or the watch
// cannot be established; a nil channel simply never fires.
func (w *Watcher) watchHead(ctx context.Context) <-chan struct{} {
	if w.gitDir == "" {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("head watch unavailable", "error", err)
		return nil
	}
	if err := fsw.Add(filepath.Join(w.gitDir, "HEAD")); err != nil {
		w.logger.Warn("head watch unavailable", "error", err)
		fsw.Close()
		return nil
	}

	kick := make(chan struct{}, 1)
	go func() {
		defer fsw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				// Git replaces HEAD by rename, so creates count too.
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case kick <- struct{}{}:
				default:
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				w.logger.Warn("head watcher error", "error", err)
			}
		}
	}()
	return kick
}
