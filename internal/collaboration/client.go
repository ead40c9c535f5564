package collaboration

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"liveboard/internal/middleware"
	"liveboard/internal/models"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client is one live duplex-channel session. The transport-assigned ID is
// the only identity it carries; the session registry decides which logical
// user (if any) owns it.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte // Buffered channel for outbound messages

	hub      *Hub
	registry *SessionRegistry
}

// ReadPump reads events from the WebSocket connection and dispatches them.
// Learning: Each connection has its own goroutine reading from the WebSocket
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.registry.Disconnect(ctx, c.ID)
		c.hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error on %s: %v", c.ID, err)
			}
			break
		}

		var event models.Event
		if err := json.Unmarshal(message, &event); err != nil {
			log.Printf("Dropping malformed event from %s: %v", c.ID, err)
			continue
		}

		msgCtx, span := middleware.StartSpan(ctx, "WebSocket.ProcessEvent",
			attribute.String("connection.id", c.ID),
			attribute.String("event.type", string(event.Type)),
			attribute.Int("message.size", len(message)),
		)

		// A failed handler never terminates the connection; the error is
		// recorded and the event is simply lost.
		if err := c.registry.HandleEvent(msgCtx, c.ID, event); err != nil {
			log.Printf("Event %s from %s failed: %v", event.Type, c.ID, err)
			middleware.AddSpanError(msgCtx, err)
		}

		span.End()
	}
}

// WritePump writes queued events to the WebSocket connection.
// Learning: Separate goroutine for writing prevents blocking on slow clients
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Flush additional queued messages
			n := len(c.Send)
			for i := 0; i < n; i++ {
				if err := c.Conn.WriteMessage(websocket.TextMessage, <-c.Send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
