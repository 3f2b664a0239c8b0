package changelog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"driftwatch/internal/types"
)

// ErrNotFound reports that no changelog entry has the requested ID.
var ErrNotFound = errors.New("changelog entry not found")

// cacheSize bounds how many parsed day files the reader keeps. Day
// files are immutable once their day has passed, so hits are common.
const cacheSize = 128

type cachedFile struct {
	modTime time.Time
	size    int64
	entries []types.ChangeDetail
}

// Reader loads and filters the changelog records a watcher has written.
// It is safe for concurrent use.
type Reader struct {
	dir   string
	cache *lru.Cache[string, cachedFile]
}

func NewReader(dir string) (*Reader, error) {
	cache, err := lru.New[string, cachedFile](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create changelog cache: %w", err)
	}
	return &Reader{dir: dir, cache: cache}, nil
}

// Load returns every entry across all day files, newest first. Entries
// order by timestamp, falling back to their ID when a record carries
// none. A missing changelog directory is simply empty.
func (r *Reader) Load() ([]types.ChangeDetail, error) {
	paths, err := filepath.Glob(filepath.Join(r.dir, "*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("list changelog files: %w", err)
	}
	sort.Strings(paths)

	var entries []types.ChangeDetail
	for _, path := range paths {
		fileEntries, err := r.parseFile(path)
		if err != nil {
			continue
		}
		entries = append(entries, fileEntries...)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return sortKey(entries[i]) > sortKey(entries[j])
	})
	return entries, nil
}

// GetByID resolves "<stem>#<line>" back to its full record.
func (r *Reader) GetByID(id string) (types.ChangeDetail, error) {
	stem, _, _ := strings.Cut(id, "#")
	if stem == "" || strings.ContainsAny(stem, `/\`) {
		return types.ChangeDetail{}, ErrNotFound
	}
	entries, err := r.parseFile(filepath.Join(r.dir, stem+".jsonl"))
	if err != nil {
		return types.ChangeDetail{}, ErrNotFound
	}
	for _, entry := range entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return types.ChangeDetail{}, ErrNotFound
}

// Filter narrows entries by exact date, exact branch, and
// case-insensitive file substring, producing the list view.
func Filter(entries []types.ChangeDetail, date, branch, fileSubstring string) []types.ChangeEntry {
	results := []types.ChangeEntry{}
	sub := strings.ToLower(fileSubstring)
	for _, entry := range entries {
		if date != "" && entry.Date != date {
			continue
		}
		if branch != "" && entry.Branch != branch {
			continue
		}
		if sub != "" && !matchesFile(entry.Files, sub) {
			continue
		}
		results = append(results, entry.Entry())
	}
	return results
}

func matchesFile(files []string, loweredSubstring string) bool {
	for _, f := range files {
		if strings.Contains(strings.ToLower(f), loweredSubstring) {
			return true
		}
	}
	return false
}

// parseFile returns the entries of one day file, reusing the cached
// parse while the file's mtime and size are unchanged.
func (r *Reader) parseFile(path string) ([]types.ChangeDetail, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if cached, ok := r.cache.Get(path); ok &&
		cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		return cached.entries, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entries := parseLines(fileStem(path), data)
	r.cache.Add(path, cachedFile{modTime: info.ModTime(), size: info.Size(), entries: entries})
	return entries, nil
}

// record is the lenient on-disk shape: files tolerates both a list and
// a bare string, and any malformed line is dropped rather than failing
// the file.
type record struct {
	Timestamp string           `json:"timestamp"`
	Branch    string           `json:"branch"`
	Files     flexibleStrings  `json:"files"`
	Diff      string           `json:"diff"`
	Summary   string           `json:"summary"`
	Stats     *types.DiffStats `json:"stats"`
}

type flexibleStrings []string

func (f *flexibleStrings) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*f = []string{single}
		return nil
	}
	return fmt.Errorf("files: expected string or list of strings")
}

// parseLines decodes a day file. Line numbers are 1-based and count
// every physical line, so IDs stay stable as blank or bad lines
// accumulate.
func parseLines(stem string, data []byte) []types.ChangeDetail {
	var out []types.ChangeDetail
	for i, line := range strings.Split(string(data), "\n") {
		raw := strings.TrimSpace(line)
		if raw == "" {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		date, _, _ := strings.Cut(rec.Timestamp, "T")
		out = append(out, types.ChangeDetail{
			ID:          fmt.Sprintf("%s#%d", stem, i+1),
			Timestamp:   rec.Timestamp,
			Branch:      rec.Branch,
			Files:       append([]string{}, rec.Files...),
			Summary:     rec.Summary,
			Date:        date,
			DiffPresent: rec.Diff != "",
			Diff:        rec.Diff,
			Stats:       rec.Stats,
		})
	}
	return out
}

func sortKey(entry types.ChangeDetail) string {
	if entry.Timestamp != "" {
		return entry.Timestamp
	}
	return entry.ID
}

func fileStem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
