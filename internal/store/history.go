package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yavuzhankeles/StaffLinuxMonitor/pkg/models"
)

// ErrNotFound is returned when a requested snapshot does not exist.
var ErrNotFound = errors.New("snapshot not found")

const historyComponent = "history"

var historyMigrations = []Migration{
	{
		Version:     1,
		Description: "create snapshots table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE snapshots (
					id          TEXT PRIMARY KEY,
					captured_at TEXT NOT NULL,
					hostname    TEXT NOT NULL,
					body        BLOB NOT NULL
				)`)
			return err
		},
	},
	{
		Version:     2,
		Description: "index snapshots by capture time",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX idx_snapshots_captured_at ON snapshots(captured_at)`)
			return err
		},
	},
}

// Entry summarises one stored snapshot without decoding its body.
type Entry struct {
	ID         string
	CapturedAt string
	Hostname   string
	// Size is the compressed body size in bytes.
	Size int
}

// OpenHistory opens the history database at path, refuses databases
// written by a newer binary and brings the schema up to date.
func OpenHistory(ctx context.Context, path, appVersion string) (*SQLiteStore, error) {
	s, err := New(path)
	if err != nil {
		return nil, err
	}
	if err := s.CheckVersion(ctx, appVersion); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.Migrate(ctx, historyComponent, historyMigrations); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return s, nil
}

// SaveSnapshot stores snap with its JSON form zstd-compressed.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *models.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	body := s.enc.EncodeAll(raw, make([]byte, 0, len(raw)/4))

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO snapshots (id, captured_at, hostname, body) VALUES (?, ?, ?, ?)",
		snap.SnapshotID, snap.Timestamp, snap.Hostname, body,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot %s: %w", snap.SnapshotID, err)
	}
	return nil
}

// LatestSnapshot returns the most recently captured snapshot.
func (s *SQLiteStore) LatestSnapshot(ctx context.Context) (*models.Snapshot, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM snapshots ORDER BY captured_at DESC, rowid DESC LIMIT 1",
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	return s.decode(body)
}

// Snapshot returns the snapshot with the given id.
func (s *SQLiteStore) Snapshot(ctx context.Context, id string) (*models.Snapshot, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, "SELECT body FROM snapshots WHERE id = ?", id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot %s: %w", id, err)
	}
	return s.decode(body)
}

// ListSnapshots returns up to limit entries, newest first. A limit of
// zero or less returns every entry.
func (s *SQLiteStore) ListSnapshots(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, captured_at, hostname, length(body)
		 FROM snapshots ORDER BY captured_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.CapturedAt, &e.Hostname, &e.Size); err != nil {
			return nil, fmt.Errorf("scan snapshot entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) decode(body []byte) (*models.Snapshot, error) {
	raw, err := s.dec.DecodeAll(body, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
