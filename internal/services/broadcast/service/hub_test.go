package service

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lasrouter/internal/platform/metrics"
	kit "lasrouter/internal/platform/testkit"

	"github.com/gorilla/websocket"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPublishFanOut(t *testing.T) {
	h := New(nil)
	a, b := h.Subscribe(4), h.Subscribe(4)
	defer a.Close()
	defer b.Close()

	h.Publish(Event{Type: EventNewRequest, Payload: "r1"})
	for _, s := range []*Subscription{a, b} {
		select {
		case ev := <-s.C:
			if ev.Type != EventNewRequest || ev.Payload != "r1" || ev.At.IsZero() {
				t.Fatalf("event = %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	m := metrics.New()
	h := New(m)
	slow := h.Subscribe(1)
	defer slow.Close()

	done := make(chan struct{})
	go func() {
		for range 100 {
			h.Publish(Event{Type: EventRequestUpdated})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	if len(slow.C) != 1 {
		t.Fatalf("buffered = %d, want 1", len(slow.C))
	}
}

func TestCloseIsIdempotentAndSilent(t *testing.T) {
	h := New(nil)
	s := h.Subscribe(0)
	if cap(s.ch) != DefaultBuffer {
		t.Fatalf("default buffer = %d", cap(s.ch))
	}
	if h.Subscribers() != 1 {
		t.Fatalf("subscribers = %d", h.Subscribers())
	}
	s.Close()
	s.Close()
	if h.Subscribers() != 0 {
		t.Fatalf("subscribers after close = %d", h.Subscribers())
	}
	if _, ok := <-s.C; ok {
		t.Fatal("C should be closed")
	}
	h.Publish(Event{Type: EventHealthUpdated})
}

func TestNoReplayForLateSubscribers(t *testing.T) {
	h := New(nil)
	h.Publish(Event{Type: EventNewRequest})
	s := h.Subscribe(4)
	defer s.Close()
	select {
	case ev := <-s.C:
		t.Fatalf("unexpected replay %+v", ev)
	default:
	}
}

func TestConcurrentPublishAndClose(t *testing.T) {
	h := New(nil)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		s := h.Subscribe(2)
		go func() {
			defer wg.Done()
			for range 200 {
				h.Publish(Event{Type: EventRequestUpdated})
			}
		}()
		go func() {
			defer wg.Done()
			time.Sleep(time.Millisecond)
			s.Close()
		}()
	}
	wg.Wait()
	if h.Subscribers() != 0 {
		t.Fatalf("subscribers = %d", h.Subscribers())
	}
}

func TestHubCloseClosesEverything(t *testing.T) {
	h := New(nil)
	s := h.Subscribe(1)
	h.Close()
	if _, ok := <-s.C; ok {
		t.Fatal("subscription should be closed")
	}
	late := h.Subscribe(1)
	if _, ok := <-late.C; ok {
		t.Fatal("subscribe after close should be closed")
	}
	if h.Subscribers() != 0 {
		t.Fatal("closed hub should have no subscribers")
	}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestWebsocketStreamsEvents(t *testing.T) {
	h := New(nil)
	srv := httptest.NewServer(Handler(h, WSOptions{}))
	defer srv.Close()

	conn := dial(t, srv)
	kit.Eventually(t, 2*time.Second, func() bool { return h.Subscribers() == 1 }, "subscriber registered")

	h.Publish(Event{Type: EventNewRequest, Payload: map[string]any{"id": "r1"}})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got struct {
		Type    EventType      `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Type != EventNewRequest || got.Payload["id"] != "r1" {
		t.Fatalf("got %+v", got)
	}

	_ = conn.Close()
	kit.Eventually(t, 2*time.Second, func() bool { return h.Subscribers() == 0 }, "subscriber removed after disconnect")
}

func TestWebsocketHubShutdownClosesStream(t *testing.T) {
	h := New(nil)
	srv := httptest.NewServer(Handler(h, WSOptions{}))
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	kit.Eventually(t, 2*time.Second, func() bool { return h.Subscribers() == 1 }, "subscriber registered")

	h.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("err = %v, want going away close", err)
	}
}

func TestWebsocketRejectsPlainHTTP(t *testing.T) {
	h := New(nil)
	rr := httptest.NewRecorder()
	Handler(h, WSOptions{}).ServeHTTP(rr, httptest.NewRequest("GET", "/events", nil))
	if rr.Code != 400 {
		t.Fatalf("status = %d", rr.Code)
	}
	if h.Subscribers() != 0 {
		t.Fatal("failed upgrade must not subscribe")
	}
}
