// Package persist writes snapshots as pretty-printed JSON files.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yavuzhankeles/StaffLinuxMonitor/pkg/models"
)

// fileLayout is the time layout embedded in snapshot file names.
const fileLayout = "20060102_150405"

// FileWriter writes one file per snapshot into a directory. Files are
// never rotated or removed.
type FileWriter struct {
	dir string
	now func() time.Time
}

// NewFileWriter returns a FileWriter for dir. An empty dir means the
// working directory.
func NewFileWriter(dir string) *FileWriter {
	if dir == "" {
		dir = "."
	}
	return &FileWriter{dir: dir, now: time.Now}
}

// FileName returns the snapshot file name for t.
func FileName(t time.Time) string {
	return "system_info_" + t.Format(fileLayout) + ".json"
}

// Persist writes snap to <dir>/system_info_<YYYYMMDD_HHMMSS>.json and
// returns the path written.
func (w *FileWriter) Persist(snap *models.Snapshot) (string, error) {
	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot directory: %w", err)
	}
	path := filepath.Join(w.dir, FileName(w.now()))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
