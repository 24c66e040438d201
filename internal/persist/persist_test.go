package persist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/testutil"
	"github.com/yavuzhankeles/StaffLinuxMonitor/pkg/models"
)

func TestFileName(t *testing.T) {
	got := FileName(time.Date(2024, 3, 4, 9, 5, 7, 0, time.Local))
	if got != "system_info_20240304_090507.json" {
		t.Errorf("FileName = %q", got)
	}
}

func TestPersist(t *testing.T) {
	dir := t.TempDir()
	w := NewFileWriter(dir)
	w.now = func() time.Time { return time.Date(2024, 3, 4, 23, 59, 1, 0, time.Local) }

	snap := testutil.NewSnapshot(testutil.WithHostname("web-01"))
	path, err := w.Persist(snap)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if path != filepath.Join(dir, "system_info_20240304_235901.json") {
		t.Errorf("path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(data), "{\n  \"snapshot_id\": ") {
		t.Errorf("file is not two-space indented JSON: %.40q", data)
	}
	var got models.Snapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Hostname != "web-01" {
		t.Errorf("Hostname = %q", got.Hostname)
	}
}

func TestPersist_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots", "nested")
	if _, err := NewFileWriter(dir).Persist(testutil.NewSnapshot()); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Errorf("dir has %d entries, err %v", len(entries), err)
	}
}

func TestPersist_UnwritableDirectory(t *testing.T) {
	// A regular file where the directory should be.
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileWriter(blocker).Persist(testutil.NewSnapshot()); err == nil {
		t.Error("expected error writing under a regular file")
	}
}
