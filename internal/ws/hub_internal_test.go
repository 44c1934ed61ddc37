package ws

import (
	"sync"
	"testing"
	"time"

	"github.com/huntwatch/huntwatch/internal/store"
	"github.com/huntwatch/huntwatch/internal/track"
)

func newHubForTest() *Hub {
	opts := store.Options{TTL: time.Minute, MaxEntries: 100}
	return New(track.New(opts, opts), time.Second, 10, 10)
}

// A client dropping its connection while a broadcast tick is in flight must
// not panic the process. Broadcast snapshots the client set before sending,
// so every iteration races the send loop against the disconnect path.
func TestBroadcastRacesDisconnect(t *testing.T) {
	h := newHubForTest()

	for i := 0; i < 500; i++ {
		c := &client{send: make(chan []byte, 1), done: make(chan struct{})}
		h.register(c)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.broadcast()
		}()
		go func() {
			defer wg.Done()
			h.unregister(c)
		}()
		wg.Wait()
	}

	if n := h.Count(); n != 0 {
		t.Errorf("Count: got %d, want 0", n)
	}
}

func TestUnregisterTwiceIsSafe(t *testing.T) {
	h := newHubForTest()
	c := &client{send: make(chan []byte, 1), done: make(chan struct{})}
	h.register(c)

	h.unregister(c)
	h.unregister(c) // slow-client removal racing the ServeHTTP defer

	select {
	case <-c.done:
	default:
		t.Error("done: expected the channel to be closed")
	}
}

func TestSlowClientRemovedOnBroadcast(t *testing.T) {
	h := newHubForTest()
	c := &client{send: make(chan []byte, 1), done: make(chan struct{})}
	h.register(c)

	// Two back-to-back broadcasts with nothing draining the buffer: the
	// second finds it full and drops the client.
	h.broadcast()
	h.broadcast()

	if n := h.Count(); n != 0 {
		t.Errorf("Count: got %d, want 0", n)
	}
	select {
	case <-c.done:
	default:
		t.Error("done: expected the slow client to be shut down")
	}
}
