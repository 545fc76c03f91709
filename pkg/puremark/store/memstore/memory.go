package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/puremark/pkg/puremark/internalerr"
	"github.com/cognicore/puremark/pkg/puremark/report"
	"github.com/cognicore/puremark/pkg/puremark/store"
)

// Store is an in-memory implementation of store.Store for tests and
// one-shot CLI runs.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]store.Snapshot
	reports   map[string][]byte
	closed    bool
}

var _ store.Store = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		snapshots: make(map[string]store.Snapshot),
		reports:   make(map[string][]byte),
	}
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) check() error {
	if s.closed {
		return fmt.Errorf("memstore: %w", internalerr.ErrStoreUnavailable)
	}
	return nil
}

func snapshotKey(name, version string) string { return name + "@" + version }

// PutSnapshot stores a copy of s unless the version is already present.
func (s *Store) PutSnapshot(ctx context.Context, snap store.Snapshot) error {
	if snap.Name == "" || snap.Version == "" {
		return fmt.Errorf("memstore: snapshot name and version required: %w", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	key := snapshotKey(snap.Name, snap.Version)
	if _, ok := s.snapshots[key]; ok {
		return nil
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}
	s.snapshots[key] = copySnapshot(snap)
	return nil
}

// GetSnapshot returns a stored snapshot.
func (s *Store) GetSnapshot(ctx context.Context, name, version string) (store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return store.Snapshot{}, err
	}
	snap, ok := s.snapshots[snapshotKey(name, version)]
	if !ok {
		return store.Snapshot{}, fmt.Errorf("snapshot %s@%s: %w", name, version, internalerr.ErrNotFound)
	}
	return copySnapshot(snap), nil
}

// ListSnapshots returns snapshots of a knowledge base, newest first. An
// empty name lists every knowledge base.
func (s *Store) ListSnapshots(ctx context.Context, name string) ([]store.SnapshotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	out := []store.SnapshotInfo{}
	for _, snap := range s.snapshots {
		if name == "" || snap.Name == name {
			out = append(out, snap.Info())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Version < out[j].Version
	})
	return out, nil
}

// PutReport stores r. Reports are kept as JSON so callers never share
// slices with the store.
func (s *Store) PutReport(ctx context.Context, r report.Report) error {
	if r.ID == "" {
		return fmt.Errorf("memstore: report id required: %w", internalerr.ErrInvalidInput)
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	s.reports[r.ID] = raw
	return nil
}

// GetReport returns a stored report.
func (s *Store) GetReport(ctx context.Context, id string) (report.Report, error) {
	s.mu.RLock()
	raw, ok := s.reports[id]
	err := s.check()
	s.mu.RUnlock()
	if err != nil {
		return report.Report{}, err
	}
	if !ok {
		return report.Report{}, fmt.Errorf("report %s: %w", id, internalerr.ErrNotFound)
	}
	var r report.Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return report.Report{}, err
	}
	return r, nil
}

// ListReports returns matching reports, newest first.
func (s *Store) ListReports(ctx context.Context, f store.ReportFilter) ([]report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	out := []report.Report{}
	for _, raw := range s.reports {
		var r report.Report
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		if f.Match(r) {
			out = append(out, r)
		}
	}
	// ULIDs sort by creation time.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit := f.EffectiveLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copySnapshot(s store.Snapshot) store.Snapshot {
	files := make(map[string][]byte, len(s.Files))
	for name, data := range s.Files {
		files[name] = append([]byte(nil), data...)
	}
	s.Files = files
	return s
}
