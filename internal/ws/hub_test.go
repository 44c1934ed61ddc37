package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/huntwatch/huntwatch/internal/store"
	"github.com/huntwatch/huntwatch/internal/track"
	"github.com/huntwatch/huntwatch/internal/ws"
	"github.com/huntwatch/huntwatch/pkg/types"
)

const testInterval = 20 * time.Millisecond

// --- helpers ----------------------------------------------------------------

func newTracker(t *testing.T, names ...string) *track.Tracker {
	t.Helper()
	opts := store.Options{TTL: 5 * time.Minute, MaxEntries: 100}
	tr := track.New(opts, opts)
	for _, name := range names {
		rep := types.SightingReport{Name: name, World: "srv1", Instance: "job1"}
		if err := tr.RecordSighting(rep, track.OriginLoopback); err != nil {
			t.Fatalf("RecordSighting: %v", err)
		}
	}
	return tr
}

// startHub starts a test HTTP server with the hub as its handler and the
// hub's Run loop under a cancellable context.
func startHub(t *testing.T, tr *track.Tracker) (wsURL string, hub *ws.Hub) {
	t.Helper()

	hub = ws.New(tr, testInterval, 50, 50)
	ctx, cancel := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	go hub.Run(ctx)

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	return "ws" + strings.TrimPrefix(srv.URL, "http"), hub
}

// dial connects a WebSocket client to wsURL and returns the connection.
func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readMessage reads one text message from conn with a short deadline.
func readMessage(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	return msg
}

// --- tests ------------------------------------------------------------------

func TestHub_Connect_ReceivesImmediateFeed(t *testing.T) {
	wsURL, _ := startHub(t, newTracker(t, "behemoth"))

	conn := dial(t, wsURL)
	msg := readMessage(t, conn)

	var m ws.Message
	if err := json.Unmarshal(msg, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Event != "feed" {
		t.Errorf("event: got %q, want feed", m.Event)
	}
	if m.Data.GeneratedAt == "" {
		t.Error("generated_at: missing")
	}
	if len(m.Data.Sightings) != 1 {
		t.Errorf("sightings: got %d, want 1", len(m.Data.Sightings))
	}
}

func TestHub_EmptyTracker_EmptyFeed(t *testing.T) {
	wsURL, _ := startHub(t, newTracker(t))

	conn := dial(t, wsURL)
	var m ws.Message
	if err := json.Unmarshal(readMessage(t, conn), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(m.Data.Sightings) != 0 || len(m.Data.Players) != 0 {
		t.Errorf("feed: got %d/%d entries, want 0/0", len(m.Data.Sightings), len(m.Data.Players))
	}
}

func TestHub_CountClients(t *testing.T) {
	wsURL, hub := startHub(t, newTracker(t))

	for i := 0; i < 3; i++ {
		conn := dial(t, wsURL)
		readMessage(t, conn) // consume initial feed
	}

	// Give the hub a moment to register the clients.
	time.Sleep(10 * time.Millisecond)
	if n := hub.Count(); n != 3 {
		t.Errorf("Count: got %d, want 3", n)
	}
}

func TestHub_CountDecreasesOnDisconnect(t *testing.T) {
	wsURL, hub := startHub(t, newTracker(t))

	conn := dial(t, wsURL)
	readMessage(t, conn)
	time.Sleep(10 * time.Millisecond)

	if n := hub.Count(); n != 1 {
		t.Errorf("Count before disconnect: got %d, want 1", n)
	}

	conn.Close()
	time.Sleep(50 * time.Millisecond) // let readPump detect the close

	if n := hub.Count(); n != 0 {
		t.Errorf("Count after disconnect: got %d, want 0", n)
	}
}

func TestHub_BroadcastsOnTick(t *testing.T) {
	tr := newTracker(t)
	wsURL, _ := startHub(t, tr)

	conn := dial(t, wsURL)
	readMessage(t, conn) // consume immediate feed (empty tracker)

	// Record a sighting after connect; the next tick must carry it.
	rep := types.SightingReport{Name: "odin", World: "srv1", Instance: "job1"}
	if err := tr.RecordSighting(rep, track.OriginLoopback); err != nil {
		t.Fatalf("RecordSighting: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var m ws.Message
		if err := json.Unmarshal(readMessage(t, conn), &m); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(m.Data.Sightings) == 1 {
			return
		}
	}
	t.Fatal("never received a broadcast containing the new sighting")
}
