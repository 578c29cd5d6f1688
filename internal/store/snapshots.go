package store

import (
	"sync"

	"SignalDeck/internal/domain/models"
)

// SnapshotStore holds the wholesale-replaced universe and ranking views.
// The two are independent: a universe update never touches the ranking list
// and vice versa.
type SnapshotStore struct {
	mu       sync.RWMutex
	universe models.UniverseCounts
	ranking  []models.RankedCandidate
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// SetUniverse replaces the universe snapshot.
func (s *SnapshotStore) SetUniverse(u models.UniverseCounts) {
	s.mu.Lock()
	s.universe = u
	s.mu.Unlock()
}

// Universe returns the current universe snapshot.
func (s *SnapshotStore) Universe() models.UniverseCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u := s.universe
	u.SelectedSymbols = append([]string(nil), s.universe.SelectedSymbols...)
	return u
}

// SetRanking replaces the ranked-candidate list.
func (s *SnapshotStore) SetRanking(rows []models.RankedCandidate) {
	cp := make([]models.RankedCandidate, len(rows))
	copy(cp, rows)
	s.mu.Lock()
	s.ranking = cp
	s.mu.Unlock()
}

// Ranking returns the current ranked-candidate list.
func (s *SnapshotStore) Ranking() []models.RankedCandidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.RankedCandidate, len(s.ranking))
	copy(out, s.ranking)
	return out
}

// Reset drops both snapshots.
func (s *SnapshotStore) Reset() {
	s.mu.Lock()
	s.universe = models.UniverseCounts{}
	s.ranking = nil
	s.mu.Unlock()
}
