package changelog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"driftwatch/internal/types"
)

// Writer appends changelog records to UTC day files, one JSON object
// per line.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Append serializes entry onto the end of today's day file, creating
// the directory and file as needed.
func (w *Writer) Append(entry types.Entry) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create changelog dir: %w", err)
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode changelog entry: %w", err)
	}
	name := time.Now().UTC().Format("2006-01-02") + ".jsonl"
	f, err := os.OpenFile(filepath.Join(w.dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open changelog file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write changelog entry: %w", err)
	}
	return nil
}
