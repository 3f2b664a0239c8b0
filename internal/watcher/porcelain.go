package watcher

import (
	"sort"
	"strings"
)

// splitStatusLines returns the non-blank lines of porcelain status
// output, status columns intact.
func splitStatusLines(porcelain string) []string {
	var lines []string
	for _, line := range strings.Split(porcelain, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// changedFiles extracts file paths from porcelain lines: the two
// status columns and separator are dropped and rename arrows keep the
// new name. Paths come back sorted and unique.
func changedFiles(statusLines []string) []string {
	seen := make(map[string]struct{})
	for _, line := range statusLines {
		path := line
		if len(line) > 3 {
			path = line[3:]
		}
		if _, after, found := strings.Cut(path, " -> "); found {
			path = after
		}
		if path != "" {
			seen[path] = struct{}{}
		}
	}
	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}
