package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"driftwatch/internal/types"
)

// DefaultCommitLimit caps commit listings when the caller does not ask
// for a specific count.
const DefaultCommitLimit = 50

// ErrDirtyWorktree rejects checkouts while local modifications exist.
var ErrDirtyWorktree = errors.New("working tree is not clean")

// Commits returns the most recent commits, newest first.
func (r *Repo) Commits(ctx context.Context, limit int) ([]types.Commit, error) {
	if limit <= 0 {
		limit = DefaultCommitLimit
	}
	out, err := r.run(ctx, "log", "--oneline", fmt.Sprintf("-n%d", limit))
	if err != nil {
		return nil, err
	}
	var commits []types.Commit
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		hash, title, _ := strings.Cut(line, " ")
		commits = append(commits, types.Commit{
			Hash:  hash,
			Short: shortHash(hash),
			Title: title,
		})
	}
	return commits, nil
}

// ShowDiff returns the full `git show` output for one commit.
func (r *Repo) ShowDiff(ctx context.Context, hash string) (string, error) {
	return r.run(ctx, "show", hash)
}

// Status returns the short status with branch header.
func (r *Repo) Status(ctx context.Context) (string, error) {
	return r.run(ctx, "status", "--short", "--branch")
}

// StatusPorcelain returns machine-readable status output, empty when
// the worktree is clean. Leading status columns are preserved, only
// the trailing newline is dropped.
func (r *Repo) StatusPorcelain(ctx context.Context) (string, error) {
	out, err := r.output(ctx, "status", "--porcelain")
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), "\n"), nil
}

// CurrentBranch returns the checked-out branch name, or "HEAD" when
// detached.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	return r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

// Diff returns the unified diff of unstaged changes.
func (r *Repo) Diff(ctx context.Context) (string, error) {
	return r.run(ctx, "diff")
}

// CheckoutReview creates a review branch at the given commit and
// switches to it. The worktree must be clean and the branch must not
// exist yet; branch defaults to review/<short hash>.
func (r *Repo) CheckoutReview(ctx context.Context, hash, branch string) (string, error) {
	porcelain, err := r.StatusPorcelain(ctx)
	if err != nil {
		return "", err
	}
	if porcelain != "" {
		return "", ErrDirtyWorktree
	}
	if branch == "" {
		branch = "review/" + shortHash(hash)
	}
	if _, err := r.run(ctx, "show-ref", "--verify", "refs/heads/"+branch); err == nil {
		return "", fmt.Errorf("branch %q already exists", branch)
	}
	if _, err := r.run(ctx, "checkout", "-b", branch, hash); err != nil {
		return "", err
	}
	return branch, nil
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
