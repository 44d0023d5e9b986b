// Package telemetry streams bus events to websocket clients as JSON envelopes
package telemetry

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lixenwraith/genegarden/core"
	"github.com/lixenwraith/genegarden/event"
)

const (
	DefaultBuffer = 64
	writeWait     = 2 * time.Second
	pingPeriod    = 20 * time.Second
)

// Message is the wire envelope for one bus event
type Message struct {
	Type    string `json:"type"`
	Tick    int    `json:"tick"`
	Payload any    `json:"payload"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Hub fans encoded events out to connected clients
// Each client has a bounded queue; a message that does not fit is dropped for that client only
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader
	buffer   int

	mu      sync.RWMutex
	clients map[*client]struct{}

	sent    atomic.Int64
	dropped atomic.Int64

	bus *event.Bus
	sub event.Subscription
}

type Option func(*Hub)

func WithLogger(logger *slog.Logger) Option { return func(h *Hub) { h.logger = logger } }

// WithBuffer sets the per-client queue length
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		buffer:  DefaultBuffer,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Attach forwards every event published on bus
func (h *Hub) Attach(bus *event.Bus) {
	h.bus = bus
	h.sub = bus.SubscribeAll(func(e event.Envelope) {
		h.Publish(Message{Type: e.Name(), Tick: e.Tick, Payload: e.Payload})
	})
}

// Publish encodes msg once and queues it on every client
func (h *Hub) Publish(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("telemetry encode failed", "type", msg.Type, "error", err)
		return
	}
	h.Broadcast(data)
}

// Broadcast queues data on every client without blocking
func (h *Hub) Broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
			h.sent.Add(1)
		default:
			h.dropped.Add(1)
		}
	}
}

// ServeHTTP upgrades the request and streams events until the client goes away
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("telemetry upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, h.buffer), done: make(chan struct{})}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("telemetry client connected", "remote", r.RemoteAddr, "clients", count)

	core.Go(func() { h.writeLoop(c) })
	h.readLoop(c)
	h.remove(c)
	h.logger.Info("telemetry client disconnected", "remote", r.RemoteAddr)
}

// readLoop drains client frames so close and pong control messages are processed
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	defer c.close()
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats reports messages queued and dropped across all clients
func (h *Hub) Stats() (sent, dropped int64) {
	return h.sent.Load(), h.dropped.Load()
}

// Close detaches from the bus and disconnects every client
func (h *Hub) Close() {
	if h.bus != nil {
		h.bus.Unsubscribe(h.sub)
		h.bus = nil
	}
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()
	for c := range clients {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		c.close()
	}
}
