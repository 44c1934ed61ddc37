package types

// SightingReport is the producer-supplied payload for one entity sighting.
// The server stores it verbatim; only the identity components (Name, World,
// Instance) are validated and interpreted.
type SightingReport struct {
	// Name of the sighted entity. Case-insensitive for identity purposes.
	Name string `json:"name"`

	// World is the world-server the entity was seen on.
	World string `json:"world"`

	// Instance is the job/zone instance within the world.
	Instance string `json:"instance"`

	// Count is the occupant count reported by the producer.
	Count int `json:"count"`

	// PerSecond is the producer-measured rate.
	PerSecond float64 `json:"per_second"`
}

// PresenceReport is the producer-supplied payload for one player presence ping.
type PresenceReport struct {
	// Player is the username. Case-insensitive for identity purposes.
	Player string `json:"player"`

	// World is the world-server the player is on.
	World string `json:"world"`

	// Instance is the job/zone instance within the world.
	Instance string `json:"instance"`

	// Zone is optional location metadata.
	Zone string `json:"zone,omitempty"`

	// Activity is optional free-form presence metadata.
	Activity string `json:"activity,omitempty"`
}

// SightingView is one live sighting as returned by the API and the feed.
type SightingView struct {
	Name      string  `json:"name"`
	World     string  `json:"world"`
	Instance  string  `json:"instance"`
	Count     int     `json:"count"`
	PerSecond float64 `json:"per_second"`
	Origin    string  `json:"origin"`
	LastSeen  string  `json:"last_seen"` // RFC3339
}

// PresenceView is one live player presence as returned by the API and the feed.
type PresenceView struct {
	Player   string `json:"player"`
	World    string `json:"world"`
	Instance string `json:"instance"`
	Zone     string `json:"zone,omitempty"`
	Activity string `json:"activity,omitempty"`
	Origin   string `json:"origin"`
	LastSeen string `json:"last_seen"` // RFC3339
}

// StoreStats summarises one store for GET /api/v1/stats.
type StoreStats struct {
	// Size is the resident entry count, including stale entries the
	// scheduler has not removed yet.
	Size int `json:"size"`

	// Live is the count of entries still inside their liveness window.
	Live int `json:"live"`

	// Capacity is the configured maximum entry count (0 = unbounded).
	Capacity int `json:"capacity"`

	// TTLSeconds is the configured liveness window.
	TTLSeconds float64 `json:"ttl_seconds"`

	// ExpiredTotal counts entries removed because their TTL elapsed.
	ExpiredTotal uint64 `json:"expired_total"`

	// EvictedTotal counts entries removed by capacity enforcement.
	EvictedTotal uint64 `json:"evicted_total"`

	// ByOrigin breaks down live entries by provenance tag.
	ByOrigin map[string]int `json:"by_origin"`
}

// StatsResponse is the payload for GET /api/v1/stats.
type StatsResponse struct {
	Sightings StoreStats `json:"sightings"`
	Players   StoreStats `json:"players"`
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status        string  `json:"status"`
	SightingCount int     `json:"sighting_count"`
	PlayerCount   int     `json:"player_count"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// FeedSnapshot is the payload broadcast to WebSocket feed clients and the
// schema of the combined live view.
type FeedSnapshot struct {
	Sightings   []SightingView `json:"sightings"`
	Players     []PresenceView `json:"players"`
	GeneratedAt string         `json:"generated_at"` // RFC3339
}
