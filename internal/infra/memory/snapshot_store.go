package memory

import (
	"context"
	"sync"

	"smart-board-game/internal/domain"
)

// SnapshotStore keeps the last saved snapshot in memory.
type SnapshotStore struct {
	mu    sync.RWMutex
	snap  domain.Snapshot
	saves int
}

func NewSnapshotStore(initial domain.Snapshot) *SnapshotStore {
	return &SnapshotStore{snap: initial}
}

func (s *SnapshotStore) Load(_ context.Context) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, nil
}

func (s *SnapshotStore) Save(_ context.Context, snapshot domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snapshot
	s.saves++
	return nil
}

// Saves reports how many snapshots have been written.
func (s *SnapshotStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
