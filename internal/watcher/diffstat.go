package watcher

import (
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"driftwatch/internal/types"
)

// diffStats counts affected files and added/removed lines in a unified
// diff. An empty or unparseable diff yields no stats.
func diffStats(diffText string) *types.DiffStats {
	if strings.TrimSpace(diffText) == "" {
		return nil
	}
	fileDiffs, err := diff.NewMultiFileDiffReader(strings.NewReader(diffText)).ReadAllFiles()
	if err != nil {
		return nil
	}

	stats := &types.DiffStats{FilesChanged: len(fileDiffs)}
	for _, fd := range fileDiffs {
		for _, hunk := range fd.Hunks {
			for _, line := range strings.Split(string(hunk.Body), "\n") {
				if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
					stats.Additions++
				} else if strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---") {
					stats.Deletions++
				}
			}
		}
	}
	return stats
}
