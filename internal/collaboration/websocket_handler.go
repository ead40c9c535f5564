package collaboration

import (
	"context"
	"log"
	"net/http"

	"liveboard/internal/middleware"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: In production, validate origin properly
		return true
	},
}

// WebSocketHandler upgrades HTTP connections and hands them to the hub.
type WebSocketHandler struct {
	hub      *Hub
	registry *SessionRegistry
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *Hub, registry *SessionRegistry) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		registry: registry,
	}
}

// HandleConnection upgrades the request and starts the client pumps. The
// connection stays anonymous until it sends a join event.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	connID := uuid.NewString()

	ctx, span := middleware.StartSpan(ctx, "WebSocket.Connect",
		attribute.String("connection.id", connID),
	)
	defer span.End()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		middleware.AddSpanError(ctx, err)
		return
	}

	client := &Client{
		ID:       connID,
		Conn:     conn,
		Send:     make(chan []byte, 256), // Buffered channel
		hub:      h.hub,
		registry: h.registry,
	}

	h.hub.Register(client)

	// Learning: Separate goroutines prevent deadlock between reading and writing.
	// The pumps outlive this handler, so they run on the background context -
	// the request context is canceled as soon as this function returns.
	pumpCtx := context.Background()
	go client.WritePump(pumpCtx)
	go client.ReadPump(pumpCtx)

	log.Printf("✓ WebSocket connection %s established", connID)
}
