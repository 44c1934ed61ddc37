// Package api implements the HTTP REST shell for huntwatch-server.
//
// New(tracker, notifier, sightingCap, playerCap) returns a *Handler serving:
//
//	POST   /api/v1/sightings                        — record a sighting
//	GET    /api/v1/sightings[?limit=N]              — live sightings, newest first
//	DELETE /api/v1/sightings                        — clear all; {"removed": n}
//	GET    /api/v1/sightings/{name}/{world}/{inst}  — one; 404 if absent or stale
//	DELETE /api/v1/sightings/{name}/{world}/{inst}  — {"removed": bool}
//	          (identical tree under /api/v1/players)
//	GET    /api/v1/stats                            — both stores' counters
//	GET    /api/v1/alerts                           — recent notifications
//	GET    /api/v1/health                           — process liveness summary
//
// All endpoints respond with Content-Type: application/json and 405 for
// unsupported methods. Validation failures are 400 with an error body; the
// stores are untouched. Responses carry permissive CORS headers because
// producers are in-game browser overlays. No external HTTP framework is used.
package api
