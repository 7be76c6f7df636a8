package remote

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/san-kum/solarsim/internal/solar"
)

// Event types pushed to WebSocket clients.
const (
	EventTick         = "tick"
	EventFieldUpdated = "field_updated"
)

// Event is the JSON envelope broadcast to WebSocket clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub fans tick samples and field changes out to WebSocket clients. It is a
// sim.Observer.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	log     *slog.Logger

	registerCh   chan *client
	unregisterCh chan *client
	broadcastCh  chan []byte
	done         chan struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients:      make(map[*client]bool),
		log:          log,
		registerCh:   make(chan *client, 16),
		unregisterCh: make(chan *client, 16),
		broadcastCh:  make(chan []byte, 256),
		done:         make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled. It
// must be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.registerCh:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.log.Debug("websocket client connected", "clients", h.ClientCount())

		case c := <-h.unregisterCh:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()

		case data := <-h.broadcastCh:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					// slow client, drop
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues data for every client. It never blocks; messages are
// dropped when the queue is full.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcastCh <- data:
	default:
	}
}

func (h *Hub) BroadcastEvent(eventType string, payload any) {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		h.log.Error("websocket: marshal event", "type", eventType, "error", err)
		return
	}
	h.Broadcast(data)
}

// OnTick publishes each tick sample.
func (h *Hub) OnTick(s solar.Sample) {
	h.BroadcastEvent(EventTick, s)
}

// FieldChanged publishes an accepted remote write.
func (h *Hub) FieldChanged(c solar.Change) {
	h.BroadcastEvent(EventFieldUpdated, c)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the request and streams events until the client
// goes away.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Warn("websocket: accept failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}
	if !h.register(c) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	go h.writePump(r.Context(), c)
	h.readPump(r.Context(), c)
}

func (h *Hub) writePump(ctx context.Context, c *client) {
	defer c.conn.Close(websocket.StatusNormalClosure, "")

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		case <-h.done:
			return
		}
	}
}

// register hands c to Run. It reports false once Run has returned.
func (h *Hub) register(c *client) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.registerCh <- c:
		return true
	case <-h.done:
		return false
	}
}

// unregister hands c back to Run, or drops it once Run has returned.
func (h *Hub) unregister(c *client) {
	select {
	case h.unregisterCh <- c:
	case <-h.done:
	}
}

// readPump drains inbound frames; clients only listen.
func (h *Hub) readPump(ctx context.Context, c *client) {
	defer h.unregister(c)

	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}
