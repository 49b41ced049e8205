package web

import (
	"sync"

	"github.com/parleyhq/parley/internal/events"
)

// clientBuffer is the per-client event channel capacity. A client that
// falls this far behind starts losing events.
const clientBuffer = 256

// Hub distributes events to connected SSE clients. All client
// management runs on a single event loop goroutine.
type Hub struct {
	mu      sync.RWMutex // guards clients
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan events.Event

	done chan struct{}
}

// Client is one connected event stream subscriber.
type Client struct {
	id     string
	events chan events.Event
}

// NewClient creates a client with a buffered event channel.
func NewClient(id string) *Client {
	return &Client{
		id:     id,
		events: make(chan events.Event, clientBuffer),
	}
}

// NewHub creates a hub. Call Run in a goroutine to start the loop.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan events.Event),
		done:       make(chan struct{}),
	}
}

// Run processes register, unregister, and broadcast operations until
// Stop is called, then closes every client channel.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.events)
			}
			h.clients = make(map[*Client]struct{})
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.events)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.events <- event:
				default:
					// Buffer full, drop the event for this client.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Stop shuts the loop down and disconnects every client.
func (h *Hub) Stop() {
	close(h.done)
}

// Register adds a client to receive events. Registering against a
// stopped hub closes the client immediately.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.events)
	}
}

// Unregister removes a client and closes its channel. Safe to call
// after Stop; the hub already closed every client by then.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast sends an event to every connected client. Clients with a
// full buffer miss the event rather than block the hub; broadcasting
// on a stopped hub is a no-op.
func (h *Hub) Broadcast(e events.Event) {
	select {
	case h.broadcast <- e:
	case <-h.done:
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
