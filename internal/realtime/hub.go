package realtime

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/sreerambrahmagnani/self-order-backend/internal/models"
)

// Event types pushed to connected clients
const (
	EventNewOrder    = "newOrder"
	EventMenuUpdated = "menuUpdated"
)

// Message is the envelope every websocket event is sent in
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Hub maintains the set of connected websocket clients and broadcasts
// change events to all of them. Delivery is fire-and-forget: a client
// whose send buffer is full is dropped rather than allowed to block
// the mutation that triggered the event, and clients connecting after
// an event was emitted never receive it retroactively.
type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates a hub with no connected clients
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Kiosk clients and admin dashboards connect from
			// arbitrary origins; the channel is open by policy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*Client]bool),
	}
}

// ServeWS upgrades an HTTP request to a websocket connection and
// registers the client with the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	client := newClient(h, conn)
	h.register(client)
	client.start()
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.log.Info("websocket client connected", "total_clients", total)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	h.log.Info("websocket client disconnected", "total_clients", total)
}

// Broadcast queues a message for every connected client. Clients with
// a full send buffer are disconnected and removed.
func (h *Hub) Broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var dropped []*Client
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			dropped = append(dropped, client)
		}
	}

	for _, client := range dropped {
		delete(h.clients, client)
		close(client.send)
		h.log.Warn("dropping slow websocket client", "event", msg.Type)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client. Called during shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

// MenuUpdated notifies all clients that the product catalog changed.
// No payload is sent; subscribers re-fetch the catalog.
func (h *Hub) MenuUpdated() {
	h.Broadcast(Message{Type: EventMenuUpdated})
}

// OrderCreated notifies all clients of a newly placed order, carrying
// the full record so dashboards can render it without a re-fetch.
func (h *Hub) OrderCreated(order models.Order) {
	h.Broadcast(Message{Type: EventNewOrder, Data: order})
}
