package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/puremark/pkg/puremark/internalerr"
	"github.com/cognicore/puremark/pkg/puremark/report"
	"github.com/cognicore/puremark/pkg/puremark/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema when missing. Opening the same file twice is safe.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection serializes writers; pragmas below then apply to every
	// statement.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: %w: %v", internalerr.ErrStoreUnavailable, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS kb_snapshots (
	name TEXT NOT NULL,
	version TEXT NOT NULL,
	files TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY(name, version)
);

CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	scan_id TEXT,
	created_at TEXT NOT NULL,
	kb_version TEXT,
	outcome TEXT NOT NULL,
	body TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS reports_created_at ON reports(created_at);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// PutSnapshot stores a snapshot; an existing name and version is kept.
func (s *sqliteStore) PutSnapshot(ctx context.Context, snap store.Snapshot) error {
	if snap.Name == "" || snap.Version == "" {
		return fmt.Errorf("sqlite: snapshot name and version required: %w", internalerr.ErrInvalidInput)
	}
	files := make(map[string]string, len(snap.Files))
	for name, data := range snap.Files {
		files[name] = string(data)
	}
	filesJSON, err := json.Marshal(files)
	if err != nil {
		return err
	}
	created := snap.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	const stmt = `
INSERT INTO kb_snapshots (name, version, files, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(name, version) DO NOTHING;
`
	_, err = s.db.ExecContext(ctx, stmt, snap.Name, snap.Version, string(filesJSON), formatTime(created))
	return err
}

// GetSnapshot loads one snapshot.
func (s *sqliteStore) GetSnapshot(ctx context.Context, name, version string) (store.Snapshot, error) {
	var filesJSON, created string
	err := s.db.QueryRowContext(ctx,
		`SELECT files, created_at FROM kb_snapshots WHERE name = ? AND version = ?`,
		name, version,
	).Scan(&filesJSON, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Snapshot{}, fmt.Errorf("snapshot %s@%s: %w", name, version, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Snapshot{}, err
	}

	var files map[string]string
	if err := json.Unmarshal([]byte(filesJSON), &files); err != nil {
		return store.Snapshot{}, fmt.Errorf("snapshot %s@%s: decode files: %w", name, version, err)
	}
	snap := store.Snapshot{
		Name:      name,
		Version:   version,
		Files:     make(map[string][]byte, len(files)),
		CreatedAt: parseTime(created),
	}
	for fname, data := range files {
		snap.Files[fname] = []byte(data)
	}
	return snap, nil
}

// ListSnapshots lists snapshots newest first; an empty name lists all.
func (s *sqliteStore) ListSnapshots(ctx context.Context, name string) ([]store.SnapshotInfo, error) {
	query := `SELECT name, version, files, created_at FROM kb_snapshots`
	var args []any
	if name != "" {
		query += ` WHERE name = ?`
		args = append(args, name)
	}
	query += ` ORDER BY created_at DESC, version ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []store.SnapshotInfo{}
	for rows.Next() {
		var (
			info      store.SnapshotInfo
			filesJSON string
			created   string
		)
		if err := rows.Scan(&info.Name, &info.Version, &filesJSON, &created); err != nil {
			return nil, err
		}
		var files map[string]json.RawMessage
		if err := json.Unmarshal([]byte(filesJSON), &files); err != nil {
			return nil, err
		}
		info.Files = len(files)
		info.CreatedAt = parseTime(created)
		out = append(out, info)
	}
	return out, rows.Err()
}

// PutReport inserts or replaces a report.
func (s *sqliteStore) PutReport(ctx context.Context, r report.Report) error {
	if r.ID == "" {
		return fmt.Errorf("sqlite: report id required: %w", internalerr.ErrInvalidInput)
	}
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}

	const stmt = `
INSERT INTO reports (id, scan_id, created_at, kb_version, outcome, body)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	scan_id=excluded.scan_id,
	created_at=excluded.created_at,
	kb_version=excluded.kb_version,
	outcome=excluded.outcome,
	body=excluded.body;
`
	_, err = s.db.ExecContext(ctx, stmt,
		r.ID,
		r.ScanID,
		formatTime(r.CreatedAt),
		r.KBVersion,
		string(r.Outcome),
		string(body),
	)
	return err
}

// GetReport loads one report.
func (s *sqliteStore) GetReport(ctx context.Context, id string) (report.Report, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM reports WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return report.Report{}, fmt.Errorf("report %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return report.Report{}, err
	}
	var r report.Report
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return report.Report{}, fmt.Errorf("report %s: decode: %w", id, err)
	}
	return r, nil
}

// ListReports returns matching reports, newest first.
func (s *sqliteStore) ListReports(ctx context.Context, f store.ReportFilter) ([]report.Report, error) {
	var (
		where []string
		args  []any
	)
	if f.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, string(f.Outcome))
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, formatTime(f.Since))
	}
	query := `SELECT body FROM reports`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, f.EffectiveLimit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []report.Report{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var r report.Report
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Timestamps are stored as fixed-width UTC strings so they sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
