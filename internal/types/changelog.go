package types

// DiffStats summarizes a unified diff: how many files it touches and
// how many lines it adds and removes.
type DiffStats struct {
	FilesChanged int `json:"files_changed"`
	Additions    int `json:"additions"`
	Deletions    int `json:"deletions"`
}

// Entry is one changelog record as written to disk, one JSON object
// per line. Timestamp is UTC RFC 3339.
type Entry struct {
	Timestamp string     `json:"timestamp"`
	Branch    string     `json:"branch"`
	Files     []string   `json:"files"`
	Diff      string     `json:"diff"`
	Summary   string     `json:"summary"`
	Stats     *DiffStats `json:"stats,omitempty"`
}

// ChangeEntry is the list view of a changelog record. The diff body is
// replaced by a presence flag to keep listings small. ID is
// "<day-file stem>#<line number>"; Date is the day part of Timestamp.
type ChangeEntry struct {
	ID          string     `json:"id"`
	Timestamp   string     `json:"timestamp"`
	Branch      string     `json:"branch"`
	Files       []string   `json:"files"`
	Summary     string     `json:"summary"`
	Date        string     `json:"date"`
	DiffPresent bool       `json:"diff_present"`
	Stats       *DiffStats `json:"stats,omitempty"`
}

// ChangeDetail is the full view of a changelog record, diff included.
type ChangeDetail struct {
	ID          string     `json:"id"`
	Timestamp   string     `json:"timestamp"`
	Branch      string     `json:"branch"`
	Files       []string   `json:"files"`
	Summary     string     `json:"summary"`
	Date        string     `json:"date"`
	DiffPresent bool       `json:"diff_present"`
	Diff        string     `json:"diff"`
	Stats       *DiffStats `json:"stats,omitempty"`
}

// Entry converts the detail to its list view.
func (d ChangeDetail) Entry() ChangeEntry {
	return ChangeEntry{
		ID:          d.ID,
		Timestamp:   d.Timestamp,
		Branch:      d.Branch,
		Files:       d.Files,
		Summary:     d.Summary,
		Date:        d.Date,
		DiffPresent: d.DiffPresent,
		Stats:       d.Stats,
	}
}
