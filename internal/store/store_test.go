package store

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func newTestStore(ttl time.Duration, max int, policy Policy) *Store[string] {
	return New[string](Options{TTL: ttl, MaxEntries: max, Policy: policy})
}

func TestPutAndGet(t *testing.T) {
	st := newTestStore(time.Minute, 0, PolicySweep)
	st.Put("behemoth|srv1|job1", "payload-1", "public")

	e, ok := st.Get("behemoth|srv1|job1")
	if !ok {
		t.Fatal("Get: expected entry, got none")
	}
	if e.Payload != "payload-1" {
		t.Errorf("Payload: got %q, want payload-1", e.Payload)
	}
	if e.Origin != "public" {
		t.Errorf("Origin: got %q, want public", e.Origin)
	}
}

func TestGet_Missing(t *testing.T) {
	st := newTestStore(time.Minute, 0, PolicySweep)
	if _, ok := st.Get("unknown"); ok {
		t.Fatal("Get on empty store: expected false, got true")
	}
}

func TestPut_Overwrites(t *testing.T) {
	st := newTestStore(time.Minute, 0, PolicySweep)
	st.Put("k", "first", "public")
	st.Put("k", "second", "private")

	if n := st.Len(); n != 1 {
		t.Fatalf("Len: got %d, want 1", n)
	}
	e, ok := st.Get("k")
	if !ok {
		t.Fatal("Get: expected entry after two Puts")
	}
	if e.Payload != "second" {
		t.Errorf("Payload: got %q, want second", e.Payload)
	}
	if e.Origin != "private" {
		t.Errorf("Origin: got %q, want private (recomputed on upsert)", e.Origin)
	}
}

func TestGet_ExpiredIsAbsent(t *testing.T) {
	base := time.Now()
	st := newTestStore(30*time.Second, 0, PolicySweep)

	st.now = fixedClock(base)
	st.Put("k", "v", "public")

	// Still live strictly before the deadline.
	st.now = fixedClock(base.Add(29 * time.Second))
	if _, ok := st.Get("k"); !ok {
		t.Fatal("Get before deadline: expected entry")
	}

	// Absent exactly at LastSeen+TTL, even though no sweep has run.
	st.now = fixedClock(base.Add(30 * time.Second))
	if _, ok := st.Get("k"); ok {
		t.Fatal("Get at deadline: expected absent")
	}
	if n := st.Len(); n != 1 {
		t.Errorf("Len: got %d, want 1 (stale entry not yet swept)", n)
	}
}

func TestRefresh_ExtendsLiveness(t *testing.T) {
	base := time.Now()
	st := newTestStore(30*time.Second, 0, PolicySweep)

	st.now = fixedClock(base)
	st.Put("k", "v1", "public")

	st.now = fixedClock(base.Add(20 * time.Second))
	st.Put("k", "v2", "public")

	// Original deadline was base+30s; the refresh moved it to base+50s.
	st.now = fixedClock(base.Add(40 * time.Second))
	e, ok := st.Get("k")
	if !ok {
		t.Fatal("Get at t=40s: expected entry (deadline is t=50s)")
	}
	if e.Payload != "v2" {
		t.Errorf("Payload: got %q, want v2", e.Payload)
	}

	st.now = fixedClock(base.Add(50 * time.Second))
	if _, ok := st.Get("k"); ok {
		t.Fatal("Get at t=50s: expected absent")
	}
}

func TestRemove(t *testing.T) {
	st := newTestStore(time.Minute, 0, PolicySweep)
	st.Put("k", "v", "public")

	if !st.Remove("k") {
		t.Error("Remove of present key: got false, want true")
	}
	if st.Remove("k") {
		t.Error("Remove of absent key: got true, want false")
	}
	if _, ok := st.Get("k"); ok {
		t.Error("Get after Remove: expected absent")
	}
}

func TestRemove_ExpiredReportsAbsent(t *testing.T) {
	base := time.Now()
	st := newTestStore(30*time.Second, 0, PolicySweep)

	st.now = fixedClock(base)
	st.Put("k", "v", "public")

	st.now = fixedClock(base.Add(time.Minute))
	if st.Remove("k") {
		t.Error("Remove of expired entry: got true, want false")
	}
	if n := st.Len(); n != 0 {
		t.Errorf("Len after Remove: got %d, want 0", n)
	}
}

func TestClear(t *testing.T) {
	st := newTestStore(time.Minute, 0, PolicySweep)
	for i := 0; i < 5; i++ {
		st.Put(fmt.Sprintf("k%d", i), "v", "public")
	}

	if n := st.Clear(); n != 5 {
		t.Errorf("Clear: got %d, want 5", n)
	}
	if n := st.Len(); n != 0 {
		t.Errorf("Len after Clear: got %d, want 0", n)
	}
	if n := st.Clear(); n != 0 {
		t.Errorf("second Clear: got %d, want 0", n)
	}
}

func TestLive_ExcludesStaleAndSorts(t *testing.T) {
	base := time.Now()
	st := newTestStore(time.Minute, 0, PolicySweep)

	st.now = fixedClock(base.Add(-2 * time.Hour))
	st.Put("stale", "v", "public")

	st.now = fixedClock(base.Add(-30 * time.Second))
	st.Put("older", "v", "public")

	st.now = fixedClock(base)
	st.Put("newest", "v", "public")

	live := st.Live(0)
	if len(live) != 2 {
		t.Fatalf("Live: got %d entries, want 2", len(live))
	}
	if live[0].Key != "newest" || live[1].Key != "older" {
		t.Errorf("Live order: got [%s %s], want [newest older]", live[0].Key, live[1].Key)
	}
}

func TestLive_TieBreakByKey(t *testing.T) {
	base := time.Now()
	st := newTestStore(time.Minute, 0, PolicySweep)
	st.now = fixedClock(base)
	st.Put("b", "v", "public")
	st.Put("a", "v", "public")
	st.Put("c", "v", "public")

	live := st.Live(0)
	if len(live) != 3 {
		t.Fatalf("Live: got %d entries, want 3", len(live))
	}
	for i, want := range []string{"a", "b", "c"} {
		if live[i].Key != want {
			t.Errorf("Live[%d]: got %s, want %s", i, live[i].Key, want)
		}
	}
}

func TestLive_Truncates(t *testing.T) {
	base := time.Now()
	st := newTestStore(time.Minute, 0, PolicySweep)
	for i := 0; i < 10; i++ {
		st.now = fixedClock(base.Add(time.Duration(i) * time.Second))
		st.Put(fmt.Sprintf("k%d", i), "v", "public")
	}

	live := st.Live(3)
	if len(live) != 3 {
		t.Fatalf("Live(3): got %d entries, want 3", len(live))
	}
	// Most recent first: k9, k8, k7.
	if live[0].Key != "k9" || live[2].Key != "k7" {
		t.Errorf("Live(3): got [%s .. %s], want [k9 .. k7]", live[0].Key, live[2].Key)
	}
}

func TestStats_ByOrigin(t *testing.T) {
	base := time.Now()
	st := newTestStore(time.Minute, 0, PolicySweep)

	st.now = fixedClock(base.Add(-2 * time.Hour))
	st.Put("stale", "v", "public")

	st.now = fixedClock(base)
	st.Put("a", "v", "loopback")
	st.Put("b", "v", "public")
	st.Put("c", "v", "public")

	stats := st.Stats()
	if stats.Size != 4 {
		t.Errorf("Size: got %d, want 4", stats.Size)
	}
	if stats.Live != 3 {
		t.Errorf("Live: got %d, want 3", stats.Live)
	}
	if stats.ByOrigin["public"] != 2 || stats.ByOrigin["loopback"] != 1 {
		t.Errorf("ByOrigin: got %v", stats.ByOrigin)
	}
}

func TestZeroTTL_NeverExpires(t *testing.T) {
	base := time.Now()
	st := newTestStore(0, 0, PolicySweep)

	st.now = fixedClock(base)
	st.Put("k", "v", "public")

	st.now = fixedClock(base.Add(1000 * time.Hour))
	if _, ok := st.Get("k"); !ok {
		t.Fatal("Get with zero TTL: expected entry to remain live")
	}
	if n := st.Sweep(base.Add(1000 * time.Hour)); n != 0 {
		t.Errorf("Sweep with zero TTL: removed %d, want 0", n)
	}
}

func TestConcurrentPuts(t *testing.T) {
	st := newTestStore(time.Minute, 0, PolicySweep)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Put("same-key", "v", "public")
		}()
	}
	wg.Wait()

	if n := st.Len(); n != 1 {
		t.Errorf("Len after concurrent puts: got %d, want 1", n)
	}
}

func TestConcurrentMixedOps(t *testing.T) {
	st := newTestStore(time.Minute, 10, PolicyDeferred)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		i := i
		wg.Add(3)
		go func() {
			defer wg.Done()
			st.Put(fmt.Sprintf("k%d", i%20), "v", "public")
		}()
		go func() {
			defer wg.Done()
			st.Live(5)
		}()
		go func() {
			defer wg.Done()
			st.expireDue(time.Now())
		}()
	}
	wg.Wait()

	if n := st.Len(); n > 10 {
		t.Errorf("Len after concurrent ops: got %d, want <= 10", n)
	}
}
