package types

// CategoryDiff records the names that appeared and disappeared within
// one category of one file. Both slices are always non-nil and sorted.
type CategoryDiff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// FileDiff holds the per-category changes for one file. Categories
// with no changes stay nil and are omitted from output.
type FileDiff struct {
	Functions *CategoryDiff `json:"functions,omitempty"`
	Classes   *CategoryDiff `json:"classes,omitempty"`
	Methods   *CategoryDiff `json:"methods,omitempty"`
	Tables    *CategoryDiff `json:"tables,omitempty"`
	Columns   *CategoryDiff `json:"columns,omitempty"`
}

// Set stores d under the named category. Unknown names are ignored.
func (f *FileDiff) Set(category string, d *CategoryDiff) {
	switch category {
	case CategoryFunctions:
		f.Functions = d
	case CategoryClasses:
		f.Classes = d
	case CategoryMethods:
		f.Methods = d
	case CategoryTables:
		f.Tables = d
	case CategoryColumns:
		f.Columns = d
	}
}

// Category returns the diff stored under the named category, nil when
// the category recorded no changes or the name is unknown.
func (f *FileDiff) Category(name string) *CategoryDiff {
	switch name {
	case CategoryFunctions:
		return f.Functions
	case CategoryClasses:
		return f.Classes
	case CategoryMethods:
		return f.Methods
	case CategoryTables:
		return f.Tables
	case CategoryColumns:
		return f.Columns
	}
	return nil
}

// Empty reports whether no category recorded any change.
func (f *FileDiff) Empty() bool {
	return f.Functions == nil && f.Classes == nil && f.Methods == nil &&
		f.Tables == nil && f.Columns == nil
}

// Rename is a likely rename detected between two snapshots: a removed
// name and an added name in the same file and category whose
// normalized forms match.
type Rename struct {
	File string `json:"file"`
	Type string `json:"type"`
	From string `json:"from"`
	To   string `json:"to"`
}

// DiffResult is the full comparison of two snapshots. Files with no
// changes are absent from Files. The totals are per-category unions of
// names across all files; renamed symbols still appear in them, the
// rename list augments the raw diff rather than replacing it.
type DiffResult struct {
	Files         map[string]*FileDiff `json:"files"`
	AddedTotals   SymbolSet            `json:"added_totals"`
	RemovedTotals SymbolSet            `json:"removed_totals"`
	Renames       []Rename             `json:"renames"`
}

// NewDiffResult returns an empty result whose collections serialize as
// {} and [] rather than null.
func NewDiffResult() *DiffResult {
	return &DiffResult{
		Files:         make(map[string]*FileDiff),
		AddedTotals:   NewSymbolSet(),
		RemovedTotals: NewSymbolSet(),
		Renames:       []Rename{},
	}
}

// Empty reports whether the diff recorded no changes at all.
func (r *DiffResult) Empty() bool {
	return len(r.Files) == 0 && len(r.Renames) == 0 &&
		r.AddedTotals.Empty() && r.RemovedTotals.Empty()
}
