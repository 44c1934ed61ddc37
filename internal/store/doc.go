// Package store implements the bounded, TTL-expiring in-memory map behind
// both huntwatch trackers.
//
// A Store holds at most MaxEntries records, each keyed by identity and
// stamped with its last activity time. Entries become unreachable once TTL
// elapses without a refresh — no earlier than LastSeen+TTL, and no later
// than LastSeen+TTL plus one scheduler Granularity. The lifecycle per entry
// is: absent → live (on Put) → live (on Put, deadline reset) → absent (on
// expiry, Remove, Clear, or capacity eviction).
//
// Two interchangeable expiry policies are provided:
//
//   - PolicySweep: Run scans the whole map every Granularity and drops
//     stale entries. O(n) per tick, bounded staleness.
//   - PolicyDeferred: Run sleeps until the earliest deadline in a min-heap
//     and removes that entry when it fires. Refreshes push a new deadline
//     and bump the entry's generation; a stale deadline no-ops at fire time
//     instead of being removed mid-heap.
//
// When a Put leaves the store over MaxEntries, the least-recently-active
// entries are evicted first (ties break by upsert order, oldest first), so
// fresh data stays visible and a Put never evicts the entry it just wrote.
// Capacity eviction and TTL expiry are independent triggers;
// removal is idempotent, whichever fires first wins.
//
// All mutations are serialized under one mutex; reads take the shared side
// and additionally re-check the liveness window, so an expired entry is
// never readable even before the scheduler gets to it.
package store
