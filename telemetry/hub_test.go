package telemetry

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lixenwraith/genegarden/event"
)

var quiet = slog.New(slog.DiscardHandler)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubStreamsBusEvents(t *testing.T) {
	bus := event.NewBus(quiet)
	bus.SetClock(func() int { return 12 })
	hub := NewHub(WithLogger(quiet))
	hub.Attach(bus)
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		resp.Body.Close()
	})
	waitFor(t, func() bool { return hub.Clients() == 1 })

	event.Publish(bus, event.GeneExecuted{Plant: "p1", GeneName: "Cloud", Success: true, EnergyCost: 4})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg struct {
		Type    string             `json:"type"`
		Tick    int                `json:"tick"`
		Payload event.GeneExecuted `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != "EventGeneExecuted" || msg.Tick != 12 || msg.Payload.GeneName != "Cloud" || msg.Payload.EnergyCost != 4 {
		t.Errorf("message = %+v", msg)
	}

	conn.Close()
	waitFor(t, func() bool { return hub.Clients() == 0 })
}

func TestBroadcastDropsOnFullQueue(t *testing.T) {
	hub := NewHub(WithLogger(quiet), WithBuffer(1))
	c := &client{send: make(chan []byte, hub.buffer), done: make(chan struct{})}
	hub.clients[c] = struct{}{}

	hub.Broadcast([]byte("a"))
	hub.Broadcast([]byte("b"))

	sent, dropped := hub.Stats()
	if sent != 1 || dropped != 1 {
		t.Errorf("sent %d dropped %d, want 1 and 1", sent, dropped)
	}
	if got := string(<-c.send); got != "a" {
		t.Errorf("queued %q, want the first message", got)
	}
}
