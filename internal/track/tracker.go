package track

import (
	"context"
	"fmt"
	"strings"

	"github.com/huntwatch/huntwatch/internal/store"
	"github.com/huntwatch/huntwatch/pkg/types"
)

// ValidationError reports a missing identity component on an incoming report.
// The offending report never reaches a store.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("track: %s is required", e.Field)
}

// Key builds the store identity for a named subject within its scope ids.
// Only the name component is case-insensitive; scope ids are kept verbatim.
func Key(name string, scopes ...string) string {
	parts := make([]string, 0, 1+len(scopes))
	parts = append(parts, strings.ToLower(name))
	parts = append(parts, scopes...)
	return strings.Join(parts, "|")
}

// Tracker owns the two ephemeral stores — entity sightings and player
// presence — and applies identity and validation rules before anything
// reaches them. Both stores share the same expiry/capacity design; presence
// runs with a fixed inactivity window instead of a payload TTL.
type Tracker struct {
	sightings *store.Store[types.SightingReport]
	presence  *store.Store[types.PresenceReport]
}

// New creates a Tracker with one store per record kind.
func New(sightings, presence store.Options) *Tracker {
	return &Tracker{
		sightings: store.New[types.SightingReport](sightings),
		presence:  store.New[types.PresenceReport](presence),
	}
}

// Run drives background expiry for both stores until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	go t.sightings.Run(ctx)
	t.presence.Run(ctx)
}

// Resize re-applies capacity bounds on both stores. Used by config hot
// reload; shrinking evicts least-recently-active entries immediately.
func (t *Tracker) Resize(sightingMax, presenceMax int) {
	t.sightings.Resize(sightingMax)
	t.presence.Resize(presenceMax)
}

// RecordSighting validates rep, trims its identity components, and upserts
// it under the provenance tag origin.
func (t *Tracker) RecordSighting(rep types.SightingReport, origin string) error {
	rep.Name = strings.TrimSpace(rep.Name)
	rep.World = strings.TrimSpace(rep.World)
	rep.Instance = strings.TrimSpace(rep.Instance)
	switch {
	case rep.Name == "":
		return &ValidationError{Field: "name"}
	case rep.World == "":
		return &ValidationError{Field: "world"}
	case rep.Instance == "":
		return &ValidationError{Field: "instance"}
	}
	t.sightings.Put(Key(rep.Name, rep.World, rep.Instance), rep, origin)
	return nil
}

// RecordPresence validates rep, trims its identity components, and upserts
// it under the provenance tag origin.
func (t *Tracker) RecordPresence(rep types.PresenceReport, origin string) error {
	rep.Player = strings.TrimSpace(rep.Player)
	rep.World = strings.TrimSpace(rep.World)
	rep.Instance = strings.TrimSpace(rep.Instance)
	switch {
	case rep.Player == "":
		return &ValidationError{Field: "player"}
	case rep.World == "":
		return &ValidationError{Field: "world"}
	case rep.Instance == "":
		return &ValidationError{Field: "instance"}
	}
	t.presence.Put(Key(rep.Player, rep.World, rep.Instance), rep, origin)
	return nil
}

// LiveSightings returns the live sightings, most recent first, truncated to
// limit when limit > 0.
func (t *Tracker) LiveSightings(limit int) []store.Entry[types.SightingReport] {
	return t.sightings.Live(limit)
}

// LivePresence returns the live player presences, most recent first,
// truncated to limit when limit > 0.
func (t *Tracker) LivePresence(limit int) []store.Entry[types.PresenceReport] {
	return t.presence.Live(limit)
}

// GetSighting looks up one sighting by identity components.
func (t *Tracker) GetSighting(name, world, instance string) (store.Entry[types.SightingReport], bool) {
	return t.sightings.Get(Key(name, world, instance))
}

// GetPresence looks up one presence by identity components.
func (t *Tracker) GetPresence(player, world, instance string) (store.Entry[types.PresenceReport], bool) {
	return t.presence.Get(Key(player, world, instance))
}

// RemoveSighting deletes one sighting and reports whether it was present.
func (t *Tracker) RemoveSighting(name, world, instance string) bool {
	return t.sightings.Remove(Key(name, world, instance))
}

// RemovePresence deletes one presence and reports whether it was present.
func (t *Tracker) RemovePresence(player, world, instance string) bool {
	return t.presence.Remove(Key(player, world, instance))
}

// ClearSightings removes every sighting and returns the prior count.
func (t *Tracker) ClearSightings() int { return t.sightings.Clear() }

// ClearPresence removes every presence and returns the prior count.
func (t *Tracker) ClearPresence() int { return t.presence.Clear() }

// Stats summarises both stores.
func (t *Tracker) Stats() types.StatsResponse {
	return types.StatsResponse{
		Sightings: toStoreStats(t.sightings.Stats()),
		Players:   toStoreStats(t.presence.Stats()),
	}
}

func toStoreStats(s store.Stats) types.StoreStats {
	return types.StoreStats{
		Size:         s.Size,
		Live:         s.Live,
		Capacity:     s.Capacity,
		TTLSeconds:   s.TTL.Seconds(),
		ExpiredTotal: s.Expired,
		EvictedTotal: s.Evicted,
		ByOrigin:     s.ByOrigin,
	}
}
