package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// WorktreeRef selects the working copy instead of a committed
// revision. Matching is case-insensitive.
const WorktreeRef = "WORKTREE"

// IsWorktree reports whether rev selects the working copy.
func IsWorktree(rev string) bool {
	return strings.EqualFold(rev, WorktreeRef)
}

// Repo runs git commands against a single repository root. The root is
// explicit so nothing resolves against the process working directory.
type Repo struct {
	root string
}

func NewRepo(root string) *Repo {
	return &Repo{root: root}
}

func (r *Repo) Root() string {
	return r.root
}

// output executes git with the repository root as working directory
// and returns raw stdout. Failures carry git's stderr when present.
func (r *Repo) output(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.root
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			if msg := strings.TrimSpace(string(exitErr.Stderr)); msg != "" {
				return nil, fmt.Errorf("git %s: %s", args[0], msg)
			}
		}
		return nil, fmt.Errorf("git %s: %w", args[0], err)
	}
	return out, nil
}

// run is output with surrounding whitespace trimmed.
func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	out, err := r.output(ctx, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// ListFiles returns the repo-relative, forward-slash paths of every
// Python file at rev. A failing listing is surfaced to the caller;
// it is the one revision-access failure that is not swallowed.
func (r *Repo) ListFiles(ctx context.Context, rev string) ([]string, error) {
	if IsWorktree(rev) {
		return r.worktreeFiles(ctx)
	}
	out, err := r.run(ctx, "ls-tree", "-r", "--name-only", rev)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasSuffix(line, ".py") {
			files = append(files, line)
		}
	}
	return files, nil
}

// ReadFile fetches one file's content at rev. Absence covers every
// failure mode: unreadable or missing files, non-UTF-8 content, and
// an expired context all report false, never an error.
func (r *Repo) ReadFile(ctx context.Context, rev string, path string) ([]byte, bool) {
	var content []byte
	if IsWorktree(rev) {
		if ctx.Err() != nil {
			return nil, false
		}
		data, err := os.ReadFile(filepath.Join(r.root, filepath.FromSlash(path)))
		if err != nil {
			return nil, false
		}
		content = data
	} else {
		data, err := r.output(ctx, "show", rev+":"+path)
		if err != nil {
			return nil, false
		}
		content = data
	}
	if !utf8.Valid(content) {
		return nil, false
	}
	return content, true
}
