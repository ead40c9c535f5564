package collaboration

import (
	"log"
	"sync"
)

/*
LEARNING: BROADCAST HUB

One goroutine owns the connected-client set and serializes every
register/unregister/broadcast against it, so fan-out for a single event
source reaches each recipient in production order. Delivery itself is
fire-and-forget: a recipient whose send buffer is full is evicted, never
retried.
*/

// Hub fans presence, cursor, and document events out to every connected
// client, optionally excluding the originator.
type Hub struct {
	clients    map[string]*Client // connection ID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage
	kick       chan string
	mu         sync.RWMutex

	done chan struct{}
}

type broadcastMessage struct {
	data []byte
	// exclude is the originating connection ID; empty means inclusive fan-out.
	exclude string
}

// NewHub creates a hub with no clients.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 256),
		kick:       make(chan string, 16),
		done:       make(chan struct{}),
	}
}

// Start begins the hub event loop.
func (h *Hub) Start() {
	log.Println("🔄 Starting broadcast hub...")

	go func() {
		for {
			select {
			case <-h.done:
				log.Println("Broadcast hub shutting down...")
				return

			case client := <-h.register:
				h.handleRegister(client)

			case client := <-h.unregister:
				h.handleUnregister(client)

			case connID := <-h.kick:
				h.handleKick(connID)

			case msg := <-h.broadcast:
				h.handleBroadcast(msg)
			}
		}
	}()
}

// BroadcastAll queues an event for every connected client, originator included.
func (h *Hub) BroadcastAll(data []byte) {
	h.broadcast <- &broadcastMessage{data: data}
}

// BroadcastExcept queues an event for every connected client except the
// originating connection.
func (h *Hub) BroadcastExcept(data []byte, connID string) {
	h.broadcast <- &broadcastMessage{data: data, exclude: connID}
}

// Kick force-closes a specific connection (administrative logout). The
// closed connection's read pump then runs the normal disconnect path.
func (h *Hub) Kick(connID string) {
	h.kick <- connID
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	total := len(h.clients)
	h.mu.Unlock()

	log.Printf("  Connection %s registered (total: %d)", client.ID, total)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
		log.Printf("  Connection %s unregistered (remaining: %d)", client.ID, len(h.clients))
	}
}

func (h *Hub) handleKick(connID string) {
	h.mu.RLock()
	client := h.clients[connID]
	h.mu.RUnlock()

	if client != nil && client.Conn != nil {
		// Closing the socket makes the read pump exit, which drives the
		// usual disconnect cleanup.
		client.Conn.Close()
	}
}

func (h *Hub) handleBroadcast(msg *broadcastMessage) {
	h.mu.RLock()
	stale := make([]*Client, 0)
	for id, client := range h.clients {
		if msg.exclude != "" && id == msg.exclude {
			continue
		}

		select {
		case client.Send <- msg.data:
			// Message queued successfully
		default:
			// Buffer full - connection is slow/dead
			log.Printf("⚠️  Connection %s buffer full, dropping it", id)
			stale = append(stale, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stale {
		h.handleUnregister(client)
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes all connections and stops the event loop.
func (h *Hub) Shutdown() {
	log.Println("🛑 Shutting down broadcast hub...")

	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.Send)
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
	h.clients = make(map[string]*Client)

	log.Println("✓ Broadcast hub shutdown complete")
}
