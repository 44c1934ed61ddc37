package api

import (
	"time"

	"github.com/huntwatch/huntwatch/internal/track"
	"github.com/huntwatch/huntwatch/pkg/types"
)

// ackResponse acknowledges an accepted report.
type ackResponse struct {
	OK bool `json:"ok"`
}

// removedResponse reports whether a single-entry removal found its target.
type removedResponse struct {
	Removed bool `json:"removed"`
}

// removedCountResponse reports how many entries a clear-all removed.
type removedCountResponse struct {
	Removed int `json:"removed"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

func toSightingView(rep types.SightingReport, origin string, lastSeen time.Time) types.SightingView {
	return types.SightingView{
		Name:      rep.Name,
		World:     rep.World,
		Instance:  rep.Instance,
		Count:     rep.Count,
		PerSecond: rep.PerSecond,
		Origin:    origin,
		LastSeen:  lastSeen.UTC().Format(time.RFC3339),
	}
}

func toPresenceView(rep types.PresenceReport, origin string, lastSeen time.Time) types.PresenceView {
	return types.PresenceView{
		Player:   rep.Player,
		World:    rep.World,
		Instance: rep.Instance,
		Zone:     rep.Zone,
		Activity: rep.Activity,
		Origin:   origin,
		LastSeen: lastSeen.UTC().Format(time.RFC3339),
	}
}

// BuildFeed assembles the combined live view broadcast to feed clients,
// honouring the same response caps as the REST lists.
func BuildFeed(t *track.Tracker, sightingCap, playerCap int) types.FeedSnapshot {
	sightings := t.LiveSightings(sightingCap)
	players := t.LivePresence(playerCap)

	snap := types.FeedSnapshot{
		Sightings:   make([]types.SightingView, 0, len(sightings)),
		Players:     make([]types.PresenceView, 0, len(players)),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, e := range sightings {
		snap.Sightings = append(snap.Sightings, toSightingView(e.Payload, e.Origin, e.LastSeen))
	}
	for _, e := range players {
		snap.Players = append(snap.Players, toPresenceView(e.Payload, e.Origin, e.LastSeen))
	}
	return snap
}
