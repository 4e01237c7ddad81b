package stream

import (
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/codevanta/propgate/internal/checks"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans check progress events out to connected WebSocket clients. It
// implements checks.EventSink; publishing never blocks the test pass, slow
// clients are disconnected instead.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]bool
}

type client struct {
	conn *websocket.Conn
	send chan checks.Event
}

// clientBuffer is the per-client event backlog before the hub gives up on
// the connection.
const clientBuffer = 64

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]bool)}
}

// CheckCompleted implements checks.EventSink.
func (h *Hub) CheckCompleted(e checks.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- e:
		default:
			// Client is not draining; drop it.
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// ClientCount reports how many clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// RegisterRoutes mounts the live event stream endpoint.
func (h *Hub) RegisterRoutes(r chi.Router) {
	r.Get("/api/stream", h.handleStream)
}

func (h *Hub) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("stream: websocket upgrade: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan checks.Event, clientBuffer)}
	h.add(c)

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// writeLoop pushes events to the client until its channel closes.
func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for e := range c.send {
		if err := c.conn.WriteJSON(e); err != nil {
			h.remove(c)
			return
		}
	}
}

// readLoop drains (and ignores) client messages so pings and close frames
// are processed; a read error means the client is gone.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("stream: websocket read: %v", err)
			}
			return
		}
	}
}
