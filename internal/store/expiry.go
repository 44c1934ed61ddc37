package store

import (
	"container/heap"
	"context"
	"log/slog"
	"time"
)

// deadline is one scheduled expiration under PolicyDeferred. Refreshing an
// entry pushes a new deadline rather than rewriting the old one mid-heap;
// the superseded deadline no-ops at fire time because its generation no
// longer matches (lazy deletion).
type deadline struct {
	key string
	at  time.Time
	gen uint64
}

type deadlineHeap []deadline

func (h deadlineHeap) Len() int           { return len(h) }
func (h deadlineHeap) Less(i, j int) bool { return h[i].at.Before(h[j].at) }
func (h deadlineHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *deadlineHeap) Push(x any) { *h = append(*h, x.(deadline)) }

func (h *deadlineHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Granularity returns the scheduler resolution: the longest an unrefreshed
// entry may outlive its deadline before background expiry removes it.
func (s *Store[P]) Granularity() time.Duration {
	g := s.ttl / 6
	if g < time.Second {
		g = time.Second
	}
	return g
}

// Run drives background expiry until ctx is cancelled. Under PolicySweep the
// whole store is scanned every Granularity. Under PolicyDeferred the loop
// sleeps until the earliest scheduled deadline, waking early whenever a Put
// schedules a sooner one.
func (s *Store[P]) Run(ctx context.Context) {
	if s.ttl <= 0 {
		<-ctx.Done()
		return
	}
	if s.policy == PolicyDeferred {
		s.runDeferred(ctx)
		return
	}

	t := time.NewTicker(s.Granularity())
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Sweep(now); n > 0 {
				slog.Debug("store: swept stale entries", "count", n)
			}
		}
	}
}

// Sweep removes every entry whose TTL elapsed at or before now and returns
// the number removed.
func (s *Store[P]) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, e := range s.data {
		if s.expiredLocked(e, now) {
			delete(s.data, key)
			removed++
		}
	}
	s.expiredTotal += uint64(removed)
	return removed
}

func (s *Store[P]) runDeferred(ctx context.Context) {
	timer := time.NewTimer(s.Granularity())
	defer timer.Stop()

	for {
		s.mu.Lock()
		wait := s.Granularity()
		if len(s.deadlines) > 0 {
			if until := s.deadlines[0].at.Sub(s.now()); until < wait {
				wait = until
			}
			if wait < 0 {
				wait = 0
			}
		}
		s.mu.Unlock()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			// A Put may have scheduled an earlier deadline — recompute.
		case <-timer.C:
			if n := s.expireDue(s.now()); n > 0 {
				slog.Debug("store: expired entries at deadline", "count", n)
			}
		}
	}
}

// expireDue pops every deadline at or before now and removes the entries
// they still refer to. Deadlines superseded by a later Put, or whose entry
// was already removed, are discarded without touching the map.
func (s *Store[P]) expireDue(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for len(s.deadlines) > 0 && !s.deadlines[0].at.After(now) {
		d := heap.Pop(&s.deadlines).(deadline)
		e, ok := s.data[d.key]
		if !ok || e.gen != d.gen || !s.expiredLocked(e, now) {
			continue
		}
		delete(s.data, d.key)
		removed++
	}
	s.expiredTotal += uint64(removed)
	return removed
}

// wakeScheduler nudges the deferred loop without blocking; a pending nudge
// already covers any number of new deadlines.
func (s *Store[P]) wakeScheduler() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
