package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/huntwatch/huntwatch/internal/notify"
	"github.com/huntwatch/huntwatch/internal/track"
	"github.com/huntwatch/huntwatch/pkg/types"
)

// Handler is the HTTP handler for all /api/v1/* endpoints. It translates
// wire requests into tracker operations and results back into JSON.
type Handler struct {
	tracker *track.Tracker
	notif   *notify.Engine
	mux     *http.ServeMux
	started time.Time

	// Response caps are hot-reloadable, so they live behind atomics.
	sightingCap atomic.Int64
	playerCap   atomic.Int64
}

// New creates a Handler wired to the given tracker and registers all routes.
// sightingCap and playerCap bound list response sizes.
func New(t *track.Tracker, n *notify.Engine, sightingCap, playerCap int) *Handler {
	h := &Handler{
		tracker: t,
		notif:   n,
		mux:     http.NewServeMux(),
		started: time.Now(),
	}
	h.SetCaps(sightingCap, playerCap)

	h.mux.HandleFunc("/api/v1/sightings", h.sightings)
	h.mux.HandleFunc("/api/v1/sightings/", h.sightingByID) // subtree — {name}/{world}/{instance}
	h.mux.HandleFunc("/api/v1/players", h.players)
	h.mux.HandleFunc("/api/v1/players/", h.playerByID)
	h.mux.HandleFunc("/api/v1/stats", h.stats)
	h.mux.HandleFunc("/api/v1/alerts", h.alerts)
	h.mux.HandleFunc("/api/v1/health", h.health)

	return h
}

// SetCaps updates the per-response entry limits. Used by config hot reload.
func (h *Handler) SetCaps(sightingCap, playerCap int) {
	h.sightingCap.Store(int64(sightingCap))
	h.playerCap.Store(int64(playerCap))
}

// ServeHTTP applies permissive CORS headers (producers are browser overlays)
// and answers preflight before routing.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Api-Key")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// sightings handles the /api/v1/sightings collection:
// POST records, GET lists live, DELETE clears all.
func (h *Handler) sightings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var rep types.SightingReport
		if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := h.tracker.RecordSighting(rep, track.Classify(r.RemoteAddr)); err != nil {
			recordErr(w, err)
			return
		}
		h.notif.SightingRecorded(rep)
		jsonResp(w, http.StatusOK, ackResponse{OK: true})

	case http.MethodGet:
		limit := h.listLimit(r, h.sightingCap.Load())
		entries := h.tracker.LiveSightings(limit)
		out := make([]types.SightingView, 0, len(entries))
		for _, e := range entries {
			out = append(out, toSightingView(e.Payload, e.Origin, e.LastSeen))
		}
		jsonResp(w, http.StatusOK, out)

	case http.MethodDelete:
		jsonResp(w, http.StatusOK, removedCountResponse{Removed: h.tracker.ClearSightings()})

	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// sightingByID handles /api/v1/sightings/{name}/{world}/{instance}:
// GET fetches one live sighting, DELETE removes one.
func (h *Handler) sightingByID(w http.ResponseWriter, r *http.Request) {
	name, world, instance, ok := identityPath(r.URL.Path, "/api/v1/sightings/")
	if !ok {
		jsonErr(w, http.StatusBadRequest, "expected /api/v1/sightings/{name}/{world}/{instance}")
		return
	}

	switch r.Method {
	case http.MethodGet:
		e, found := h.tracker.GetSighting(name, world, instance)
		if !found {
			jsonErr(w, http.StatusNotFound, "sighting not found")
			return
		}
		jsonResp(w, http.StatusOK, toSightingView(e.Payload, e.Origin, e.LastSeen))

	case http.MethodDelete:
		jsonResp(w, http.StatusOK, removedResponse{Removed: h.tracker.RemoveSighting(name, world, instance)})

	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// players handles the /api/v1/players collection:
// POST records a presence ping, GET lists live, DELETE clears all.
func (h *Handler) players(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var rep types.PresenceReport
		if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := h.tracker.RecordPresence(rep, track.Classify(r.RemoteAddr)); err != nil {
			recordErr(w, err)
			return
		}
		jsonResp(w, http.StatusOK, ackResponse{OK: true})

	case http.MethodGet:
		limit := h.listLimit(r, h.playerCap.Load())
		entries := h.tracker.LivePresence(limit)
		out := make([]types.PresenceView, 0, len(entries))
		for _, e := range entries {
			out = append(out, toPresenceView(e.Payload, e.Origin, e.LastSeen))
		}
		jsonResp(w, http.StatusOK, out)

	case http.MethodDelete:
		jsonResp(w, http.StatusOK, removedCountResponse{Removed: h.tracker.ClearPresence()})

	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// playerByID handles /api/v1/players/{player}/{world}/{instance}.
func (h *Handler) playerByID(w http.ResponseWriter, r *http.Request) {
	player, world, instance, ok := identityPath(r.URL.Path, "/api/v1/players/")
	if !ok {
		jsonErr(w, http.StatusBadRequest, "expected /api/v1/players/{player}/{world}/{instance}")
		return
	}

	switch r.Method {
	case http.MethodGet:
		e, found := h.tracker.GetPresence(player, world, instance)
		if !found {
			jsonErr(w, http.StatusNotFound, "player not found")
			return
		}
		jsonResp(w, http.StatusOK, toPresenceView(e.Payload, e.Origin, e.LastSeen))

	case http.MethodDelete:
		jsonResp(w, http.StatusOK, removedResponse{Removed: h.tracker.RemovePresence(player, world, instance)})

	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// stats returns GET /api/v1/stats — both stores' size, live count, capacity,
// and provenance breakdown.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.tracker.Stats())
}

// alerts returns GET /api/v1/alerts — notifications fired within the past hour.
func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.notif.Active())
}

// health returns GET /api/v1/health — a process liveness summary.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stats := h.tracker.Stats()
	jsonResp(w, http.StatusOK, types.HealthResponse{
		Status:        "ok",
		SightingCount: stats.Sightings.Live,
		PlayerCount:   stats.Players.Live,
		UptimeSeconds: time.Since(h.started).Seconds(),
	})
}

// --- helpers ----------------------------------------------------------------

// listLimit resolves the effective list size: the configured cap, lowered by
// a ?limit= query parameter when present and smaller.
func (h *Handler) listLimit(r *http.Request, capped int64) int {
	limit := int(capped)
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 && n < limit {
			limit = n
		}
	}
	return limit
}

// identityPath splits the subtree remainder into exactly three non-empty
// identity components.
func identityPath(path, prefix string) (a, b, c string, ok bool) {
	parts := strings.Split(strings.TrimPrefix(path, prefix), "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// recordErr maps a tracker error to its HTTP response.
func recordErr(w http.ResponseWriter, err error) {
	var verr *track.ValidationError
	if errors.As(err, &verr) {
		jsonErr(w, http.StatusBadRequest, verr.Error())
		return
	}
	jsonErr(w, http.StatusInternalServerError, "internal error")
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
