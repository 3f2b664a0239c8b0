package types

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestStringSet_Sorted(t *testing.T) {
	set := NewStringSet("zeta", "alpha", "mid")

	got := set.Sorted()
	want := []string{"alpha", "mid", "zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestStringSet_SortedNilSet(t *testing.T) {
	var set StringSet

	got := set.Sorted()
	if got == nil {
		t.Fatal("Expected non-nil slice from nil set")
	}
	if len(got) != 0 {
		t.Errorf("Expected empty slice, got %v", got)
	}
}

func TestStringSet_MarshalJSON(t *testing.T) {
	set := NewStringSet("b", "a")

	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `["a","b"]` {
		t.Errorf(`Expected ["a","b"], got %s`, data)
	}

	empty := NewStringSet()
	data, err = json.Marshal(empty)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("Expected [], got %s", data)
	}
}

func TestStringSet_UnmarshalJSON(t *testing.T) {
	var set StringSet
	if err := json.Unmarshal([]byte(`["x","y","x"]`), &set); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !set.Has("x") || !set.Has("y") {
		t.Errorf("Expected x and y in set, got %v", set.Sorted())
	}
	if len(set) != 2 {
		t.Errorf("Expected duplicates collapsed, got %d members", len(set))
	}
}

func TestSymbolSet_Category(t *testing.T) {
	set := NewSymbolSet()
	set.Functions.Add("f")
	set.Tables.Add("t")

	if !set.Category(CategoryFunctions).Has("f") {
		t.Error("Expected functions category to resolve")
	}
	if !set.Category(CategoryTables).Has("t") {
		t.Error("Expected tables category to resolve")
	}
	if set.Category("bogus") != nil {
		t.Error("Expected nil for unknown category")
	}
}

func TestSymbolSet_Empty(t *testing.T) {
	set := NewSymbolSet()
	if !set.Empty() {
		t.Error("Expected fresh set to be empty")
	}

	set.Columns.Add("id")
	if set.Empty() {
		t.Error("Expected set with a column to be non-empty")
	}
}

func TestSymbolSet_MarshalAllCategories(t *testing.T) {
	data, err := json.Marshal(NewSymbolSet())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for _, category := range Categories {
		value, present := decoded[category]
		if !present {
			t.Errorf("Expected category %s in output", category)
			continue
		}
		if value == nil {
			t.Errorf("Expected [] for %s, got null", category)
		}
	}
}

func TestChangeDetail_Entry(t *testing.T) {
	detail := ChangeDetail{
		ID:          "2025-11-03#4",
		Timestamp:   "2025-11-03T12:30:00Z",
		Branch:      "main",
		Files:       []string{"app.py"},
		Summary:     "touched app",
		Date:        "2025-11-03",
		DiffPresent: true,
		Diff:        "diff --git a/app.py b/app.py",
		Stats:       &DiffStats{FilesChanged: 1, Additions: 3, Deletions: 1},
	}

	entry := detail.Entry()

	if entry.ID != detail.ID || entry.Timestamp != detail.Timestamp || entry.Branch != detail.Branch {
		t.Errorf("Expected identity fields preserved, got %+v", entry)
	}
	if !entry.DiffPresent {
		t.Error("Expected diff presence flag to carry over")
	}
	if entry.Stats != detail.Stats {
		t.Error("Expected stats pointer to carry over")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if _, present := decoded["diff"]; present {
		t.Error("Expected list view to drop the diff body")
	}
}
