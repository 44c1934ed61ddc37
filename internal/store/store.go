package store

import (
	"container/heap"
	"sort"
	"sync"
	"time"
)

// Policy selects how expired entries are removed from a Store.
type Policy string

const (
	// PolicySweep scans the whole map on a fixed interval and removes every
	// stale entry it finds. Worst-case staleness is one sweep interval.
	PolicySweep Policy = "sweep"

	// PolicyDeferred keeps a min-heap of per-key deadlines and removes each
	// entry as its own deadline fires.
	PolicyDeferred Policy = "deferred"
)

// Entry is one resident record together with its liveness bookkeeping.
type Entry[P any] struct {
	Key     string
	Payload P

	// Origin is the provenance tag derived from the producer's network
	// origin. Recomputed on every Put.
	Origin string

	// LastSeen never decreases for a given key while the entry exists.
	LastSeen time.Time

	// gen is bumped on every Put. A deferred deadline is honoured only if
	// its captured generation still matches, so a deadline scheduled before
	// a refresh can never remove the refreshed entry.
	gen uint64

	// seq is the store-wide upsert sequence at the entry's latest Put.
	// Capacity eviction uses it to break LastSeen ties in upsert order, so
	// the entry a Put just wrote is never the one that Put evicts.
	seq uint64
}

// Options configures a Store.
type Options struct {
	// TTL is the liveness window: an entry not refreshed for TTL becomes
	// unreachable. Zero or negative disables expiry.
	TTL time.Duration

	// MaxEntries bounds the resident entry count (0 = unbounded). When a Put
	// pushes the store over the bound, the least-recently-active entries are
	// evicted until the count is back at MaxEntries.
	MaxEntries int

	// Policy selects the expiry mechanism. Defaults to PolicySweep.
	Policy Policy
}

// Stats is a point-in-time summary of one Store.
type Stats struct {
	Size     int
	Live     int
	Capacity int
	TTL      time.Duration
	Expired  uint64
	Evicted  uint64
	ByOrigin map[string]int
}

// Store is a thread-safe ephemeral map from key to payload. Entries expire
// TTL after their last Put and the resident count is bounded by MaxEntries.
// All state is volatile; a restart starts from zero.
type Store[P any] struct {
	mu   sync.RWMutex
	data map[string]*Entry[P]

	ttl    time.Duration
	max    int
	policy Policy
	now    func() time.Time // injectable for deterministic tests

	deadlines deadlineHeap
	wake      chan struct{}
	upserts   uint64

	expiredTotal uint64
	evictedTotal uint64
}

// New creates a Store with the given options.
func New[P any](opts Options) *Store[P] {
	policy := opts.Policy
	if policy == "" {
		policy = PolicySweep
	}
	return &Store[P]{
		data:   make(map[string]*Entry[P]),
		ttl:    opts.TTL,
		max:    opts.MaxEntries,
		policy: policy,
		now:    time.Now,
		wake:   make(chan struct{}, 1),
	}
}

// Put inserts or replaces the entry for key, refreshing its liveness window
// and resetting any pending expiry deadline. Callers must not modify payload
// after calling Put.
func (s *Store[P]) Put(key string, payload P, origin string) {
	s.mu.Lock()
	now := s.now()
	e, ok := s.data[key]
	if !ok {
		e = &Entry[P]{Key: key}
		s.data[key] = e
	}
	e.Payload = payload
	e.Origin = origin
	if now.After(e.LastSeen) {
		e.LastSeen = now
	}
	e.gen++
	e.seq = s.upserts
	s.upserts++
	deferred := s.policy == PolicyDeferred && s.ttl > 0
	if deferred {
		heap.Push(&s.deadlines, deadline{key: key, at: e.LastSeen.Add(s.ttl), gen: e.gen})
	}
	s.enforceCapacityLocked()
	s.mu.Unlock()

	if deferred {
		s.wakeScheduler()
	}
}

// Get returns the entry for key. An entry whose TTL has elapsed is reported
// absent even if the scheduler has not removed it yet.
func (s *Store[P]) Get(key string) (Entry[P], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[key]
	if !ok || s.expiredLocked(e, s.now()) {
		return Entry[P]{}, false
	}
	return *e, true
}

// Remove deletes the entry for key and reports whether a live entry was
// present. Removing an absent (or already expired) key is a no-op.
func (s *Store[P]) Remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[key]
	if !ok {
		return false
	}
	delete(s.data, key)
	return !s.expiredLocked(e, s.now())
}

// Clear removes every entry and returns the prior resident count.
func (s *Store[P]) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.data)
	s.data = make(map[string]*Entry[P])
	s.deadlines = s.deadlines[:0]
	return n
}

// Len returns the resident entry count, including stale entries the
// scheduler has not removed yet.
func (s *Store[P]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Entries returns a copy of every resident entry in no particular order.
// Callers that need ordering must sort explicitly; callers that need the
// externally visible subset should use Live.
func (s *Store[P]) Entries() []Entry[P] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry[P], 0, len(s.data))
	for _, e := range s.data {
		out = append(out, *e)
	}
	return out
}

// Live returns the entries still inside their liveness window, most recently
// active first. Ties on LastSeen order by ascending key so the result is
// stable. When limit > 0 the result is truncated to at most limit entries;
// limit is a presentation cap, distinct from MaxEntries.
func (s *Store[P]) Live(limit int) []Entry[P] {
	s.mu.RLock()
	now := s.now()
	out := make([]Entry[P], 0, len(s.data))
	for _, e := range s.data {
		if !s.expiredLocked(e, now) {
			out = append(out, *e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].LastSeen.After(out[j].LastSeen)
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Stats returns a point-in-time summary, with live entries broken down by
// provenance tag.
func (s *Store[P]) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	st := Stats{
		Size:     len(s.data),
		Capacity: s.max,
		TTL:      s.ttl,
		Expired:  s.expiredTotal,
		Evicted:  s.evictedTotal,
		ByOrigin: make(map[string]int),
	}
	for _, e := range s.data {
		if s.expiredLocked(e, now) {
			continue
		}
		st.Live++
		st.ByOrigin[e.Origin]++
	}
	return st
}

// expiredLocked reports whether e's TTL elapsed at now: expired exactly once
// now >= LastSeen+TTL. Caller must hold mu.
func (s *Store[P]) expiredLocked(e *Entry[P], now time.Time) bool {
	if s.ttl <= 0 {
		return false
	}
	return !now.Before(e.LastSeen.Add(s.ttl))
}
