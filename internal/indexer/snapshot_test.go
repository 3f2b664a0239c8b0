package indexer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeSource serves canned file listings and contents so builder tests
// never touch git or the filesystem.
type fakeSource struct {
	files   []string
	listErr error
	content map[string]string
	delay   map[string]time.Duration
}

func (f *fakeSource) ListFiles(ctx context.Context, rev string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.files, nil
}

func (f *fakeSource) ReadFile(ctx context.Context, rev string, path string) ([]byte, bool) {
	if d := f.delay[path]; d > 0 {
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(d):
		}
	}
	content, ok := f.content[path]
	if !ok {
		return nil, false
	}
	return []byte(content), true
}

func TestBuilder_Snapshot(t *testing.T) {
	source := &fakeSource{
		files: []string{"app.py", "models.py", "empty.py"},
		content: map[string]string{
			"app.py":    "def handler():\n    pass\n",
			"models.py": "class User:\n    __tablename__ = \"users\"\n    id = Column()\n",
			"empty.py":  "",
		},
	}
	builder := NewBuilder(source, 2, 0)

	snap, err := builder.Snapshot(context.Background(), "HEAD")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	if len(snap) != 3 {
		t.Fatalf("Expected 3 files in snapshot, got %d", len(snap))
	}
	if !snap["app.py"].Functions.Has("handler") {
		t.Errorf("Expected handler in app.py functions, got %v", snap["app.py"].Functions.Sorted())
	}
	if !snap["models.py"].Classes.Has("User") {
		t.Errorf("Expected User in models.py classes, got %v", snap["models.py"].Classes.Sorted())
	}
	if !snap["models.py"].Tables.Has("users") {
		t.Errorf("Expected users in models.py tables, got %v", snap["models.py"].Tables.Sorted())
	}
	if !snap["empty.py"].Empty() {
		t.Errorf("Expected empty symbol set for empty.py")
	}
}

func TestBuilder_UnreadableFileOmitted(t *testing.T) {
	source := &fakeSource{
		files: []string{"ok.py", "gone.py"},
		content: map[string]string{
			"ok.py": "def keep():\n    pass\n",
		},
	}
	builder := NewBuilder(source, 1, 0)

	snap, err := builder.Snapshot(context.Background(), "HEAD")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	if _, present := snap["gone.py"]; present {
		t.Error("Expected unreadable file to be omitted from the snapshot")
	}
	if _, present := snap["ok.py"]; !present {
		t.Error("Expected readable file to survive a sibling read failure")
	}
}

func TestBuilder_UnparsableFilePresentAndEmpty(t *testing.T) {
	source := &fakeSource{
		files: []string{"broken.py"},
		content: map[string]string{
			"broken.py": "def broken(:\n",
		},
	}
	builder := NewBuilder(source, 1, 0)

	snap, err := builder.Snapshot(context.Background(), "HEAD")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	symbols, present := snap["broken.py"]
	if !present {
		t.Fatal("Expected unparsable file to stay in the snapshot")
	}
	if !symbols.Empty() {
		t.Errorf("Expected empty symbol set for unparsable file, got %+v", symbols)
	}
}

func TestBuilder_ListErrorSurfaced(t *testing.T) {
	listErr := errors.New("unknown revision")
	builder := NewBuilder(&fakeSource{listErr: listErr}, 1, 0)

	snap, err := builder.Snapshot(context.Background(), "nope")
	if err == nil {
		t.Fatal("Expected error when listing fails")
	}
	if snap != nil {
		t.Errorf("Expected nil snapshot on listing failure, got %v", snap)
	}
	if !errors.Is(err, listErr) {
		t.Errorf("Expected wrapped listing error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Errorf("Expected error to name the revision, got: %v", err)
	}
}

func TestBuilder_Cancellation(t *testing.T) {
	files := make([]string, 64)
	content := make(map[string]string, len(files))
	for i := range files {
		name := "f" + strings.Repeat("x", i) + ".py"
		files[i] = name
		content[name] = "def f():\n    pass\n"
	}
	builder := NewBuilder(&fakeSource{files: files, content: content}, 2, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap, err := builder.Snapshot(ctx, "HEAD")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got: %v", err)
	}
	if snap != nil {
		t.Errorf("Expected no partial snapshot after cancellation, got %d entries", len(snap))
	}
}

func TestBuilder_SlowFileTimesOut(t *testing.T) {
	source := &fakeSource{
		files: []string{"fast.py", "slow.py"},
		content: map[string]string{
			"fast.py": "def quick():\n    pass\n",
			"slow.py": "def late():\n    pass\n",
		},
		delay: map[string]time.Duration{
			"slow.py": 500 * time.Millisecond,
		},
	}
	builder := NewBuilder(source, 2, 20*time.Millisecond)

	snap, err := builder.Snapshot(context.Background(), "HEAD")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	if _, present := snap["slow.py"]; present {
		t.Error("Expected timed-out file to be omitted")
	}
	if !snap["fast.py"].Functions.Has("quick") {
		t.Errorf("Expected fast.py to be scanned, got %v", snap["fast.py"].Functions.Sorted())
	}
}
