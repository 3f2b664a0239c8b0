package types

import (
	"encoding/json"
	"sort"
)

// Symbol categories tracked per file, in processing order.
const (
	CategoryFunctions = "functions"
	CategoryClasses   = "classes"
	CategoryMethods   = "methods"
	CategoryTables    = "tables"
	CategoryColumns   = "columns"
)

// Categories lists every symbol category in the fixed order diffs
// and reports process them.
var Categories = []string{
	CategoryFunctions,
	CategoryClasses,
	CategoryMethods,
	CategoryTables,
	CategoryColumns,
}

// StringSet is an unordered set of names that serializes as a sorted
// JSON array so identical sets always produce identical output.
type StringSet map[string]struct{}

// NewStringSet builds a set from the given items.
func NewStringSet(items ...string) StringSet {
	s := make(StringSet, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Add inserts name into the set.
func (s StringSet) Add(name string) {
	s[name] = struct{}{}
}

// Has reports whether name is in the set.
func (s StringSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the set's members in lexical order. A nil set yields
// an empty, non-nil slice.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *StringSet) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewStringSet(items...)
	return nil
}

// SymbolSet holds every symbol extracted from one Python source file,
// grouped by category. Methods are recorded as "Class.name" using the
// innermost enclosing class.
type SymbolSet struct {
	Functions StringSet `json:"functions"`
	Classes   StringSet `json:"classes"`
	Methods   StringSet `json:"methods"`
	Tables    StringSet `json:"tables"`
	Columns   StringSet `json:"columns"`
}

// NewSymbolSet returns a SymbolSet with all categories initialized and
// empty. Files that fail to parse are represented by exactly this value.
func NewSymbolSet() SymbolSet {
	return SymbolSet{
		Functions: make(StringSet),
		Classes:   make(StringSet),
		Methods:   make(StringSet),
		Tables:    make(StringSet),
		Columns:   make(StringSet),
	}
}

// Category returns the set for the named category, or nil for an
// unknown name. Callers must treat a nil set as empty.
func (s SymbolSet) Category(name string) StringSet {
	switch name {
	case CategoryFunctions:
		return s.Functions
	case CategoryClasses:
		return s.Classes
	case CategoryMethods:
		return s.Methods
	case CategoryTables:
		return s.Tables
	case CategoryColumns:
		return s.Columns
	}
	return nil
}

// Empty reports whether no category holds any symbol.
func (s SymbolSet) Empty() bool {
	return len(s.Functions) == 0 && len(s.Classes) == 0 &&
		len(s.Methods) == 0 && len(s.Tables) == 0 && len(s.Columns) == 0
}

// Snapshot maps repo-relative, forward-slash file paths to the symbols
// found in each file at a single revision.
type Snapshot map[string]SymbolSet
