package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/testutil"
)

func TestNew_InvalidPath(t *testing.T) {
	if _, err := New("/nonexistent/path/to/history.db"); err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpenHistory_Pragmas(t *testing.T) {
	s := tempHistory(t)
	ctx := context.Background()

	var mode string
	if err := s.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var fk int
	if err := s.db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func appliedMigrations(t *testing.T, s *SQLiteStore) int {
	t.Helper()
	var n int
	err := s.db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM _migrations WHERE component = ?", historyComponent,
	).Scan(&n)
	if err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	return n
}

func TestOpenHistory_SchemaApplied(t *testing.T) {
	s := tempHistory(t)

	if got := appliedMigrations(t, s); got != len(historyMigrations) {
		t.Errorf("applied %d migrations, want %d", got, len(historyMigrations))
	}

	var name string
	err := s.db.QueryRowContext(context.Background(),
		"SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_snapshots_captured_at'",
	).Scan(&name)
	if err != nil {
		t.Errorf("captured_at index missing: %v", err)
	}
}

func TestOpenHistory_ReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	for i := range 3 {
		s, err := OpenHistory(ctx, path, "0.3.0")
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		// Running the same steps again on an open store is a no-op too.
		if err := s.Migrate(ctx, historyComponent, historyMigrations); err != nil {
			t.Errorf("re-migrate #%d: %v", i+1, err)
		}
		if got := appliedMigrations(t, s); got != len(historyMigrations) {
			t.Errorf("open #%d: %d migrations recorded, want %d", i+1, got, len(historyMigrations))
		}
		s.Close()
	}
}

func TestMigrate_FailedStepRollsBack(t *testing.T) {
	s := tempHistory(t)
	ctx := context.Background()

	steps := append(slices.Clone(historyMigrations), Migration{
		Version:     len(historyMigrations) + 1,
		Description: "add note column",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec("ALTER TABLE snapshots ADD COLUMN note TEXT"); err != nil {
				return err
			}
			return errors.New("interrupted")
		},
	})

	if err := s.Migrate(ctx, historyComponent, steps); err == nil {
		t.Fatal("expected error from failing migration")
	}
	if got := appliedMigrations(t, s); got != len(historyMigrations) {
		t.Errorf("failed step recorded: %d migrations, want %d", got, len(historyMigrations))
	}
	if _, err := s.db.ExecContext(ctx, "SELECT note FROM snapshots"); err == nil {
		t.Error("note column survived the rollback")
	}
	if err := s.SaveSnapshot(ctx, testutil.NewSnapshot()); err != nil {
		t.Errorf("SaveSnapshot after failed migration: %v", err)
	}
}

func TestOpenHistory_VersionGuard(t *testing.T) {
	tests := []struct {
		name       string
		stored     string
		current    string
		wantErr    error
		wantStored string
	}{
		{"same version", "0.3.0", "0.3.0", nil, "0.3.0"},
		{"upgrade records new version", "0.3.0", "0.4.0", nil, "0.4.0"},
		{"v prefix tolerated", "v1.0.0", "1.0.1", nil, "1.0.1"},
		{"newer database refused", "0.5.0", "0.4.0", ErrNewerSchema, "0.5.0"},
		{"dev database opened by release", "dev", "0.1.0", nil, "0.1.0"},
		{"dev binary opens anything", "0.9.0", "dev", nil, "dev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "history.db")
			ctx := context.Background()

			s, err := OpenHistory(ctx, path, tt.stored)
			if err != nil {
				t.Fatalf("first open: %v", err)
			}
			s.Close()

			s, err = OpenHistory(ctx, path, tt.current)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("reopen: %v", err)
			} else {
				s.Close()
			}

			raw, err := New(path)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer raw.Close()
			var stored string
			if err := raw.db.QueryRowContext(ctx, "SELECT app_version FROM _schema_meta WHERE id = 1").Scan(&stored); err != nil {
				t.Fatalf("query stored version: %v", err)
			}
			if stored != tt.wantStored {
				t.Errorf("stored version = %q, want %q", stored, tt.wantStored)
			}
		})
	}
}

func TestInTx(t *testing.T) {
	s := tempHistory(t)
	ctx := context.Background()
	insert := func(id string) func(*sql.Tx) error {
		return func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO snapshots (id, captured_at, hostname, body) VALUES (?, '2024-03-04T10:00:00Z', 'h', x'00')", id)
			return err
		}
	}

	errAbort := errors.New("abort")
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := insert("rolled-back")(tx); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Errorf("inTx error = %v, want the callback's error", err)
	}

	if err := s.inTx(ctx, insert("committed")); err != nil {
		t.Fatalf("inTx commit: %v", err)
	}

	entries, err := s.ListSnapshots(ctx, 0)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "committed" {
		t.Errorf("entries = %+v, want only the committed row", entries)
	}
}

func TestClose(t *testing.T) {
	s, err := OpenHistory(context.Background(), filepath.Join(t.TempDir(), "history.db"), "0.3.0")
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.db.PingContext(context.Background()); err == nil {
		t.Error("expected error pinging closed database")
	}
}
