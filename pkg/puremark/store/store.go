package store

import (
	"context"
	"time"

	"github.com/cognicore/puremark/pkg/puremark/report"
)

// Store persists knowledge base snapshots and the scan report journal.
type Store interface {
	Close() error

	// Snapshots are keyed by name and version. Storing the same key twice
	// keeps the first copy: a version is a content hash.
	PutSnapshot(ctx context.Context, s Snapshot) error
	GetSnapshot(ctx context.Context, name, version string) (Snapshot, error)
	ListSnapshots(ctx context.Context, name string) ([]SnapshotInfo, error)

	// Reports are keyed by ID; storing an existing ID replaces it.
	PutReport(ctx context.Context, r report.Report) error
	GetReport(ctx context.Context, id string) (report.Report, error)
	ListReports(ctx context.Context, f ReportFilter) ([]report.Report, error)
}

// Snapshot is the raw registry files of one knowledge base version.
type Snapshot struct {
	Name      string
	Version   string
	Files     map[string][]byte
	CreatedAt time.Time
}

// Info drops the file contents.
func (s Snapshot) Info() SnapshotInfo {
	return SnapshotInfo{Name: s.Name, Version: s.Version, Files: len(s.Files), CreatedAt: s.CreatedAt}
}

// SnapshotInfo describes a stored snapshot.
type SnapshotInfo struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Files     int       `json:"files"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportFilter narrows ListReports. Results are newest first.
type ReportFilter struct {
	Outcome report.Outcome // empty matches all
	Since   time.Time      // zero matches all
	Limit   int            // <= 0 means DefaultListLimit
}

// DefaultListLimit caps ListReports when no limit is given.
const DefaultListLimit = 100

// EffectiveLimit applies the default.
func (f ReportFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// Match reports whether r passes the filter.
func (f ReportFilter) Match(r report.Report) bool {
	if f.Outcome != "" && r.Outcome != f.Outcome {
		return false
	}
	if !f.Since.IsZero() && r.CreatedAt.Before(f.Since) {
		return false
	}
	return true
}
