package layout

import (
	"context"
	"sort"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	ErrTypeSnapshotNotFound = "snapshot-not-found"
)

// Store persists snapshots.
type Store interface {
	Save(ctx context.Context, s Snapshot) error
	Get(ctx context.Context, id string) (Snapshot, error)

	// List returns the snapshot ids, oldest first.
	List(ctx context.Context) ([]string, error)

	AttachPlan(ctx context.Context, id string, p *Plan) error
}

// NotFound returns the error reported when no snapshot has the given id.
func NotFound(id string) error {
	return errors.New("snapshot not found").
		WithTag("id", id).
		WithType(ErrTypeSnapshotNotFound)
}

// MemoryStore is a Store that keeps snapshots in memory.
type MemoryStore struct {
	mutex     sync.RWMutex
	snapshots map[string]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]Snapshot),
	}
}

func (s *MemoryStore) Save(ctx context.Context, snap Snapshot) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.snapshots[snap.ID] = snap
	instrumentSnapshotGauge(len(s.snapshots))
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Snapshot, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return Snapshot{}, NotFound(id)
	}
	return snap, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	snapshots := make([]Snapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		snapshots = append(snapshots, snap)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].CreatedAt.Equal(snapshots[j].CreatedAt) {
			return snapshots[i].ID < snapshots[j].ID
		}
		return snapshots[i].CreatedAt.Before(snapshots[j].CreatedAt)
	})

	ids := make([]string, len(snapshots))
	for i, snap := range snapshots {
		ids[i] = snap.ID
	}
	return ids, nil
}

func (s *MemoryStore) AttachPlan(ctx context.Context, id string, p *Plan) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return NotFound(id)
	}
	snap.Plan = p
	s.snapshots[id] = snap
	return nil
}
