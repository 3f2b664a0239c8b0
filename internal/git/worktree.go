package git

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// skipDirs are directory names never descended into during a worktree
// walk, alongside anything hidden.
var skipDirs = map[string]bool{
	"venv":         true,
	"env":          true,
	"node_modules": true,
}

// worktreeFiles walks the repository root for Python files, skipping
// hidden paths and common dependency directories. Paths come back
// repo-relative with forward slashes.
func (r *Repo) worktreeFiles(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var files []string
	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		name := d.Name()
		if d.IsDir() {
			if path == r.root {
				return nil
			}
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".py") {
			return nil
		}
		rel, err := filepath.Rel(r.root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", r.root, err)
	}
	return files, nil
}
