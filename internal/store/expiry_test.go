package store

import (
	"fmt"
	"testing"
	"time"
)

func TestSweep_RemovesStale(t *testing.T) {
	base := time.Now()
	st := newTestStore(5*time.Minute, 0, PolicySweep)

	st.now = fixedClock(base.Add(-10 * time.Minute))
	st.Put("old1", "v", "public")
	st.Put("old2", "v", "public")

	st.now = fixedClock(base)
	st.Put("live", "v", "public")

	if n := st.Sweep(base); n != 2 {
		t.Errorf("Sweep: removed %d, want 2", n)
	}
	if n := st.Len(); n != 1 {
		t.Errorf("Len after sweep: got %d, want 1", n)
	}
	if _, ok := st.Get("live"); !ok {
		t.Error("Get(live): expected entry to survive the sweep")
	}
}

func TestSweep_Boundary(t *testing.T) {
	base := time.Now()
	st := newTestStore(30*time.Second, 0, PolicySweep)

	st.now = fixedClock(base)
	st.Put("k", "v", "public")

	// One granularity short of the deadline: kept.
	if n := st.Sweep(base.Add(30*time.Second - time.Millisecond)); n != 0 {
		t.Errorf("Sweep before deadline: removed %d, want 0", n)
	}
	// Exactly at LastSeen+TTL: removed.
	if n := st.Sweep(base.Add(30 * time.Second)); n != 1 {
		t.Errorf("Sweep at deadline: removed %d, want 1", n)
	}
}

func TestSweep_CountsExpired(t *testing.T) {
	base := time.Now()
	st := newTestStore(time.Second, 0, PolicySweep)

	st.now = fixedClock(base)
	st.Put("a", "v", "public")
	st.Put("b", "v", "public")
	st.Sweep(base.Add(time.Minute))

	if got := st.Stats().Expired; got != 2 {
		t.Errorf("Stats.Expired: got %d, want 2", got)
	}
}

func TestDeferred_ExpiresAtDeadline(t *testing.T) {
	base := time.Now()
	st := newTestStore(30*time.Second, 0, PolicyDeferred)

	st.now = fixedClock(base)
	st.Put("k", "v", "public")

	if n := st.expireDue(base.Add(29 * time.Second)); n != 0 {
		t.Errorf("expireDue before deadline: removed %d, want 0", n)
	}
	if n := st.expireDue(base.Add(30 * time.Second)); n != 1 {
		t.Errorf("expireDue at deadline: removed %d, want 1", n)
	}
	if n := st.Len(); n != 0 {
		t.Errorf("Len: got %d, want 0", n)
	}
}

func TestDeferred_RefreshSupersedesDeadline(t *testing.T) {
	base := time.Now()
	st := newTestStore(30*time.Second, 0, PolicyDeferred)

	st.now = fixedClock(base)
	st.Put("k", "v1", "public")

	st.now = fixedClock(base.Add(20 * time.Second))
	st.Put("k", "v2", "public")

	// The original deadline fires at base+30s but its generation is stale;
	// the refreshed entry must survive.
	if n := st.expireDue(base.Add(30 * time.Second)); n != 0 {
		t.Errorf("expireDue at superseded deadline: removed %d, want 0", n)
	}
	if _, ok := st.Get("k"); !ok {
		t.Fatal("Get after superseded deadline: expected entry")
	}

	// The replacement deadline (base+50s) removes it.
	if n := st.expireDue(base.Add(50 * time.Second)); n != 1 {
		t.Errorf("expireDue at new deadline: removed %d, want 1", n)
	}
}

func TestDeferred_RemovedEntryDeadlineNoOps(t *testing.T) {
	base := time.Now()
	st := newTestStore(30*time.Second, 0, PolicyDeferred)

	st.now = fixedClock(base)
	st.Put("k", "v", "public")
	st.Remove("k")

	if n := st.expireDue(base.Add(time.Minute)); n != 0 {
		t.Errorf("expireDue after explicit Remove: removed %d, want 0", n)
	}
}

func TestDeferred_ReinsertAfterRemove(t *testing.T) {
	base := time.Now()
	st := newTestStore(30*time.Second, 0, PolicyDeferred)

	st.now = fixedClock(base)
	st.Put("k", "v1", "public")
	st.Remove("k")

	st.now = fixedClock(base.Add(10 * time.Second))
	st.Put("k", "v2", "public")

	// The first deadline (base+30s) targets a generation that no longer
	// exists; the re-inserted entry lives until base+40s.
	if n := st.expireDue(base.Add(30 * time.Second)); n != 0 {
		t.Errorf("expireDue at stale deadline: removed %d, want 0", n)
	}
	if _, ok := st.Get("k"); !ok {
		t.Fatal("Get: expected re-inserted entry")
	}
	if n := st.expireDue(base.Add(40 * time.Second)); n != 1 {
		t.Errorf("expireDue at new deadline: removed %d, want 1", n)
	}
}

// TestPoliciesEquivalent drives both policies through the same upsert
// schedule and verifies they agree on the surviving set once each policy's
// expiry pass has run.
func TestPoliciesEquivalent(t *testing.T) {
	base := time.Now()
	ttl := 30 * time.Second

	run := func(policy Policy, expire func(*Store[string], time.Time)) map[string]bool {
		st := newTestStore(ttl, 0, policy)
		st.now = fixedClock(base)
		st.Put("a", "v", "public")
		st.now = fixedClock(base.Add(10 * time.Second))
		st.Put("b", "v", "public")
		st.now = fixedClock(base.Add(25 * time.Second))
		st.Put("a", "v", "public") // refresh a; its deadline moves to base+55s

		at := base.Add(45 * time.Second) // b stale (deadline base+40s), a live
		expire(st, at)
		st.now = fixedClock(at)

		got := make(map[string]bool)
		for _, e := range st.Live(0) {
			got[e.Key] = true
		}
		return got
	}

	swept := run(PolicySweep, func(st *Store[string], at time.Time) { st.Sweep(at) })
	deferred := run(PolicyDeferred, func(st *Store[string], at time.Time) { st.expireDue(at) })

	if fmt.Sprint(swept) != fmt.Sprint(deferred) {
		t.Errorf("policies diverge: sweep=%v deferred=%v", swept, deferred)
	}
	if !swept["a"] || swept["b"] {
		t.Errorf("surviving set: got %v, want map[a:true]", swept)
	}
}

func TestGranularity(t *testing.T) {
	if g := newTestStore(time.Minute, 0, PolicySweep).Granularity(); g != 10*time.Second {
		t.Errorf("Granularity(1m): got %v, want 10s", g)
	}
	// Floors at one second for short TTLs.
	if g := newTestStore(2*time.Second, 0, PolicySweep).Granularity(); g != time.Second {
		t.Errorf("Granularity(2s): got %v, want 1s", g)
	}
}
