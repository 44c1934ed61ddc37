package store

import "sort"

// enforceCapacityLocked evicts least-recently-active entries until the store
// is back at its configured maximum. Ties on LastSeen break by upsert order,
// oldest first, so eviction is deterministic and a Put that triggers
// enforcement never evicts the entry it just wrote. Caller must hold mu.
func (s *Store[P]) enforceCapacityLocked() int {
	if s.max <= 0 || len(s.data) <= s.max {
		return 0
	}
	byAge := make([]*Entry[P], 0, len(s.data))
	for _, e := range s.data {
		byAge = append(byAge, e)
	}
	sort.Slice(byAge, func(i, j int) bool {
		if !byAge[i].LastSeen.Equal(byAge[j].LastSeen) {
			return byAge[i].LastSeen.Before(byAge[j].LastSeen)
		}
		return byAge[i].seq < byAge[j].seq
	})
	n := len(s.data) - s.max
	for _, e := range byAge[:n] {
		delete(s.data, e.Key)
	}
	s.evictedTotal += uint64(n)
	return n
}

// Resize changes the maximum resident entry count and immediately enforces
// the new bound. It returns the number of entries evicted.
func (s *Store[P]) Resize(max int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.max = max
	return s.enforceCapacityLocked()
}
