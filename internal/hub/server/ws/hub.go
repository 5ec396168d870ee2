// Package ws fans snapshot changes out to connected WebSocket observers.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/plughub-io/plughub/internal/hub/core/device"
	"github.com/plughub-io/plughub/pkg/log"
)

const (
	writeTimeout = 10 * time.Second

	// sendBuffer bounds each client's queue; a client that falls this far
	// behind is dropped rather than allowed to stall the broadcast.
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The status feed is read-only and carries no secrets.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub tracks connected clients and broadcasts snapshot updates to them. It
// implements device.Observer.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}

	// current is replayed to each newly connected client.
	current    device.Snapshot
	hasCurrent bool
}

var _ device.Observer = (*Hub)(nil)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
	}
}

// OnSnapshotChanged broadcasts the snapshot to every connected client.
// Duplicate pushes of identical state are fine; clients just redraw.
func (h *Hub) OnSnapshotChanged(snap device.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		log.Error(err, "Failed to marshal snapshot")
		return
	}

	h.mu.Lock()
	h.current = snap
	h.hasCurrent = true
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Client too slow; drop it.
			delete(h.clients, c)
			close(c.send)
		}
	}
	h.mu.Unlock()
}

// ServeHTTP upgrades the request and registers the connection for pushes.
// The current snapshot is sent immediately so the page renders without
// waiting for the next change.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error(err, "WebSocket upgrade failed")
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.hasCurrent {
		if payload, err := json.Marshal(h.current); err == nil {
			c.send <- payload
		}
	}
	h.mu.Unlock()

	log.Debug("WebSocket client connected", "remote", conn.RemoteAddr().String())

	go h.writeLoop(c)
	go h.readLoop(c)
}

// ClientCount reports the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()

	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(c)
			return
		}
	}
	// send closed by the broadcaster: say goodbye.
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
}

// readLoop discards inbound messages; the feed is one-way. It exists to
// notice the client going away.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}
