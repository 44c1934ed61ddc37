// Package config loads the huntwatch-server configuration from the `server:`
// section of config.yaml, overlays HUNTWATCH_* environment variables, and
// validates the result.
//
// Config fields:
//   - HTTPPort            — REST API, WebSocket feed, /metrics (default 8080)
//   - Auth.Mode           — "apikey" or "none"; key resolved via Auth.KeyEnv
//   - Sightings / Players — per-store ttl, max_entries, response_cap, policy
//   - Feed.Interval       — WebSocket broadcast cadence (default 5s)
//   - Notify              — sighting rules and webhook delivery targets
//
// Load(path) applies defaults before unmarshalling. Watch(ctx, path, fn)
// re-loads on file changes so capacity and response caps can be tuned
// without a restart.
package config
