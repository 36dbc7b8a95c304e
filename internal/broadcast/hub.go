package broadcast

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/plus3/kindecs/ecs"
	"github.com/plus3/kindecs/engine"
)

const (
	sendBuffer = 16
	writeWait  = 5 * time.Second
)

type client struct {
	conn   *websocket.Conn
	remote string
	send   chan []byte
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans out messages to every connected websocket client. A client whose
// send buffer is full is dropped instead of stalling the broadcaster.
type Hub struct {
	logger   zerolog.Logger
	origins  []string
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type HubOption func(*Hub)

// WithAllowedOrigins lists the Origin header values accepted from browsers.
// "*" accepts any origin. Without this option only same-origin requests and
// requests without an Origin header are accepted.
func WithAllowedOrigins(origins ...string) HubOption {
	return func(h *Hub) {
		h.origins = append(h.origins, origins...)
	}
}

func NewHub(logger zerolog.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}
	for _, opt := range opts {
		opt(h)
	}
	if len(h.origins) > 0 {
		h.upgrader.CheckOrigin = h.checkOrigin
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.origins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// ServeHTTP upgrades the request and keeps the client registered until its
// connection errors or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("Websocket upgrade failed")
		return
	}

	c := &client{conn: conn, remote: r.RemoteAddr, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		_ = conn.Close()
		return
	}
	h.logger.Debug().Str("remote", r.RemoteAddr).Msg("Client connected")

	go h.writeLoop(c)

	// Clients only listen; reading is how a dropped connection is noticed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.unregister(c)
	h.logger.Debug().Str("remote", r.RemoteAddr).Msg("Client disconnected")
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.unregister(c)
			return
		}
	}
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
}

// Broadcast queues msg for every client without blocking.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			delete(h.clients, c)
			c.close()
			h.logger.Warn().Str("remote", c.remote).Msg("Dropped slow client")
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

type tickCounter interface {
	Ticks() uint64
}

// Sink returns an engine callback that snapshots the store and broadcasts
// it, stamped with the engine's current tick.
func (h *Hub) Sink(ticks tickCounter) engine.TickCallback[*ecs.Storage] {
	return func(storage *ecs.Storage) {
		if h.Clients() == 0 {
			return
		}

		snap := TakeSnapshot(ticks.Ticks(), storage)
		data, err := snap.Encode()
		if err != nil {
			h.logger.Error().Err(err).Uint64("tick", snap.Tick).Msg("Snapshot encoding failed")
			return
		}
		h.Broadcast(data)
	}
}
