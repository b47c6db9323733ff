// Package ingestion reads the market snapshots written by the ingestion
// service. This service never writes them.
package ingestion

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"token-pattern-be/pkg/vectorizer"
)

// Source is the read side of the snapshot feed. Sampling is irregular; a
// window may hold any number of snapshots, including none.
type Source interface {
	// GetSnapshots returns the snapshots of entityId with start <= ts < end,
	// ordered by timestamp.
	GetSnapshots(ctx context.Context, entityId string, start, end time.Time) ([]vectorizer.Snapshot, error)
	// ListEntities returns the entities with at least one snapshot in
	// [start, end), in lexical order.
	ListEntities(ctx context.Context, start, end time.Time) ([]string, error)
}

// MemorySource holds snapshots in process. It backs deployments without a
// database and the service tests.
type MemorySource struct {
	mu        sync.RWMutex
	snapshots map[string][]vectorizer.Snapshot
}

func NewMemorySource() *MemorySource {
	return &MemorySource{snapshots: make(map[string][]vectorizer.Snapshot)}
}

// Add appends snapshots, keeping each entity's series sorted.
func (s *MemorySource) Add(snaps ...vectorizer.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	touched := make(map[string]struct{})
	for _, snap := range snaps {
		snap.Timestamp = snap.Timestamp.UTC()
		s.snapshots[snap.EntityId] = append(s.snapshots[snap.EntityId], snap)
		touched[snap.EntityId] = struct{}{}
	}
	for id := range touched {
		slices.SortStableFunc(s.snapshots[id], func(a, b vectorizer.Snapshot) int {
			return a.Timestamp.Compare(b.Timestamp)
		})
	}
}

func inRange(ts, start, end time.Time) bool {
	return !ts.Before(start) && ts.Before(end)
}

func (s *MemorySource) GetSnapshots(ctx context.Context, entityId string, start, end time.Time) ([]vectorizer.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []vectorizer.Snapshot{}
	for _, snap := range s.snapshots[entityId] {
		if inRange(snap.Timestamp, start, end) {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (s *MemorySource) ListEntities(ctx context.Context, start, end time.Time) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []string{}
	for id, snaps := range s.snapshots {
		if slices.ContainsFunc(snaps, func(snap vectorizer.Snapshot) bool { return inRange(snap.Timestamp, start, end) }) {
			out = append(out, id)
		}
	}
	slices.SortFunc(out, strings.Compare)
	return out, nil
}
