package indexer

import (
	"sort"
	"strings"

	"driftwatch/internal/types"
)

// Diff compares two snapshots and reports what appeared, what
// disappeared, and which changes look like renames. It is pure: the
// inputs are never mutated, and identical inputs always produce an
// identical result. Snapshots with nil category sets are treated as
// empty.
func Diff(a, b types.Snapshot) *types.DiffResult {
	result := types.NewDiffResult()

	paths := make(map[string]struct{}, len(a)+len(b))
	for p := range a {
		paths[p] = struct{}{}
	}
	for p := range b {
		paths[p] = struct{}{}
	}
	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	for _, path := range sorted {
		na := a[path]
		nb := b[path]
		fileDiff := &types.FileDiff{}
		for _, category := range types.Categories {
			setA := na.Category(category)
			setB := nb.Category(category)
			added := subtract(setB, setA)
			removed := subtract(setA, setB)
			result.Renames = append(result.Renames, renameCandidates(path, category, removed, added)...)
			if len(added) == 0 && len(removed) == 0 {
				continue
			}
			fileDiff.Set(category, &types.CategoryDiff{Added: added, Removed: removed})
			for _, name := range added {
				result.AddedTotals.Category(category).Add(name)
			}
			for _, name := range removed {
				result.RemovedTotals.Category(category).Add(name)
			}
		}
		if !fileDiff.Empty() {
			result.Files[path] = fileDiff
		}
	}
	return result
}

// subtract returns the members of a that are not in b, sorted. The
// slice is never nil so it serializes as [].
func subtract(a, b types.StringSet) []string {
	out := []string{}
	for name := range a {
		if !b.Has(name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// renameCandidates pairs each removed name with every added name in the
// same file and category whose normalized form matches. Every matching
// pair is reported, both sides walked in sorted order, so ambiguous
// matches surface instead of an arbitrary winner being picked.
func renameCandidates(file, category string, removed, added []string) []types.Rename {
	if len(removed) == 0 || len(added) == 0 {
		return nil
	}
	normAdded := make(map[string][]string, len(added))
	for _, name := range added {
		key := normalize(name)
		normAdded[key] = append(normAdded[key], name)
	}
	var out []types.Rename
	for _, from := range removed {
		for _, to := range normAdded[normalize(from)] {
			if to != from {
				out = append(out, types.Rename{File: file, Type: category, From: from, To: to})
			}
		}
	}
	return out
}

// normalize reduces a name for rename matching: underscores and hyphens
// stripped, case folded.
func normalize(name string) string {
	name = strings.ReplaceAll(name, "_", "")
	name = strings.ReplaceAll(name, "-", "")
	return strings.ToLower(name)
}
