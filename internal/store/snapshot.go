package store

import (
	"sync"

	"github.com/efreitasn/teamstocks/internal/domain"
)

// SnapshotStore is a thread-safe in-memory store for portfolio value
// snapshots, keyed by account. Snapshots are append-only.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string][]domain.Snapshot
}

// NewSnapshotStore creates an empty SnapshotStore.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[string][]domain.Snapshot),
	}
}

// Append adds the snapshots to their accounts' series.
func (s *SnapshotStore) Append(snapshots ...domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snap := range snapshots {
		s.snapshots[snap.AccountID] = append(s.snapshots[snap.AccountID], snap)
	}
}

// ByAccount returns a copy of the account's snapshots, oldest first.
func (s *SnapshotStore) ByAccount(accountID string) []domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Snapshot, len(s.snapshots[accountID]))
	copy(result, s.snapshots[accountID])
	return result
}
