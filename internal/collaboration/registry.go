package collaboration

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"liveboard/internal/models"
	"liveboard/internal/store"
)

/*
LEARNING: SESSION REGISTRY

The registry is the single writer of all presence keys. Every logical
operation (join, cursor move, disconnect, forced logout) performs its
store writes in one fixed order here, which is what keeps the composite
invariant "online implies bound" true without cross-key transactions.
*/

// Router is what the registry needs from the broadcast layer.
// Interface declared by the consumer so tests can record fan-out.
type Router interface {
	BroadcastAll(data []byte)
	BroadcastExcept(data []byte, connID string)

	// Kick force-closes a connection owned by THIS process. Bindings live
	// in the shared store but the socket itself does not: a connection
	// held by another instance is out of reach here, and only its shared
	// state gets retracted. Closing it remotely would take a shared kick
	// channel between instances.
	Kick(connID string)
}

// DocumentReplacer is the slice of the document store the registry uses.
type DocumentReplacer interface {
	Replace(ctx context.Context, content models.DocumentContent) (*models.Document, error)
}

// UserUpserter persists username handles on join.
type UserUpserter interface {
	Upsert(ctx context.Context, username string) error
}

// SessionRegistry binds live connections to logical users and resolves
// the owning user for every subsequent event.
type SessionRegistry struct {
	presence *store.Presence
	docs     DocumentReplacer
	users    UserUpserter
	router   Router

	mu     sync.RWMutex
	byConn map[string]string // connection ID -> bound username
}

// NewSessionRegistry wires the registry to its stores and router.
func NewSessionRegistry(presence *store.Presence, docs DocumentReplacer, users UserUpserter, router Router) *SessionRegistry {
	return &SessionRegistry{
		presence: presence,
		docs:     docs,
		users:    users,
		router:   router,
		byConn:   make(map[string]string),
	}
}

// HandleEvent dispatches one client->server duplex event.
func (r *SessionRegistry) HandleEvent(ctx context.Context, connID string, event models.Event) error {
	switch event.Type {
	case models.EventJoin:
		var payload models.JoinPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("bad join payload: %w", err)
		}
		return r.Join(ctx, connID, payload.Username)

	case models.EventCursorMove:
		var payload models.CursorMovePayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("bad cursor_move payload: %w", err)
		}
		return r.CursorMove(ctx, connID, payload.X, payload.Y)

	case models.EventTableUpdate:
		var content models.DocumentContent
		if err := json.Unmarshal(event.Payload, &content); err != nil {
			return fmt.Errorf("bad table_update payload: %w", err)
		}
		return r.TableUpdate(ctx, connID, content)

	default:
		// Unknown event types are dropped, not errors - newer clients may
		// speak a superset of this protocol.
		log.Printf("Ignoring unknown event type %q from %s", event.Type, connID)
		return nil
	}
}

// Join binds a connection to a username, claiming it from any previous
// owner. If this connection had already joined under another name, that
// name is fully cleaned up first - a connection owns at most one user.
func (r *SessionRegistry) Join(ctx context.Context, connID, username string) error {
	if username == "" {
		return nil // silently ignored, same as any event from an unbound connection
	}

	r.mu.Lock()
	previous, rebound := r.byConn[connID]
	r.mu.Unlock()

	rejoined := rebound && previous == username

	if rebound && previous != username {
		if err := r.Disconnect(ctx, connID); err != nil {
			return err
		}
	}

	// Last join wins: a username already owned by another live connection
	// is taken over and the old connection is closed. Its local binding is
	// cleared here so its disconnect handler won't retract the fresh state.
	oldConn, bound, err := r.presence.GetBinding(ctx, username)
	if err != nil {
		return err
	}
	if bound && oldConn != connID {
		// The takeover also retires the previous session's cursor: the new
		// session has sent no cursor_move since its join yet.
		if err := r.presence.DeleteCursor(ctx, username); err != nil {
			return err
		}

		r.mu.Lock()
		delete(r.byConn, oldConn)
		r.mu.Unlock()
		r.router.Kick(oldConn)
	}

	if err := r.users.Upsert(ctx, username); err != nil {
		return err
	}
	if err := r.presence.SetBinding(ctx, username, connID); err != nil {
		return err
	}
	if err := r.presence.AddOnline(ctx, username); err != nil {
		return err
	}

	r.mu.Lock()
	r.byConn[connID] = username
	r.mu.Unlock()

	// Re-joining under the same name on the same connection reasserts the
	// store state but stays silent: peers already saw this user arrive.
	if !rejoined {
		r.announceExcept(models.EventUserJoined, models.UserPayload{Username: username}, connID)
		r.announceOnlineUsers(ctx)
		log.Printf("  %s joined as %q", connID, username)
	}
	return nil
}

// ResolveUser returns the username bound to a connection.
func (r *SessionRegistry) ResolveUser(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	username, ok := r.byConn[connID]
	return username, ok
}

// CursorMove records a cursor position and relays it to everyone except
// the originator. Events from connections that never joined are ignored.
func (r *SessionRegistry) CursorMove(ctx context.Context, connID string, x, y int) error {
	username, ok := r.ResolveUser(connID)
	if !ok {
		return nil
	}

	cursor := models.CursorPosition{Username: username, X: x, Y: y}
	if err := r.presence.SetCursor(ctx, cursor); err != nil {
		return err
	}

	r.announceExcept(models.EventUserCursor, cursor, connID)
	return nil
}

// TableUpdate replaces the shared document and relays the new content to
// everyone except the originator. Whole-document last-writer-wins; a later
// writer silently shadows an earlier one.
func (r *SessionRegistry) TableUpdate(ctx context.Context, connID string, content models.DocumentContent) error {
	if _, ok := r.ResolveUser(connID); !ok {
		return nil
	}

	if _, err := r.docs.Replace(ctx, content); err != nil {
		return err
	}

	r.announceExcept(models.EventTableUpdated, content, connID)
	return nil
}

// Disconnect retracts a connection's binding and presence. Safe to call
// more than once per connection: after the first call the local binding is
// gone and the rest is a no-op.
func (r *SessionRegistry) Disconnect(ctx context.Context, connID string) error {
	r.mu.Lock()
	username, ok := r.byConn[connID]
	if ok {
		delete(r.byConn, connID)
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}

	if _, err := r.presence.RemoveOnline(ctx, username); err != nil {
		return err
	}
	if err := r.presence.DeleteCursor(ctx, username); err != nil {
		return err
	}
	if err := r.presence.DeleteBinding(ctx, username); err != nil {
		return err
	}

	r.announceAll(models.EventUserLeft, models.UserPayload{Username: username})
	r.announceOnlineUsers(ctx)

	log.Printf("  %s disconnected (was %q)", connID, username)
	return nil
}

// Login marks a username online from outside the connection layer (the
// Control API). Presence reflects claims to be online, not transport
// liveness: the user is in the set even before any WebSocket join, until
// logout or disconnect retracts it. No duplex events are emitted - there
// is no connection to announce.
func (r *SessionRegistry) Login(ctx context.Context, username string) error {
	if err := r.users.Upsert(ctx, username); err != nil {
		return err
	}
	return r.presence.AddOnline(ctx, username)
}

// ForceLogout retracts a username from outside the connection layer (the
// Control API). If a live connection owns the name it is force-closed.
// Duplex events are emitted only when there was presence or a binding to
// retract; logging out a never-online user is a silent no-op.
func (r *SessionRegistry) ForceLogout(ctx context.Context, username string) error {
	wasOnline, err := r.presence.RemoveOnline(ctx, username)
	if err != nil {
		return err
	}
	if err := r.presence.DeleteCursor(ctx, username); err != nil {
		return err
	}

	connID, bound, err := r.presence.GetBinding(ctx, username)
	if err != nil {
		return err
	}
	if bound {
		if err := r.presence.DeleteBinding(ctx, username); err != nil {
			return err
		}

		// Clear the local binding before the kick so the connection's own
		// disconnect handler becomes a no-op.
		r.mu.Lock()
		delete(r.byConn, connID)
		r.mu.Unlock()

		r.router.Kick(connID)
	}

	if wasOnline || bound {
		r.announceAll(models.EventUserLeft, models.UserPayload{Username: username})
		r.announceOnlineUsers(ctx)
	}

	return nil
}

// announceOnlineUsers pushes the full presence snapshot to every client,
// originator included.
func (r *SessionRegistry) announceOnlineUsers(ctx context.Context) {
	users, err := r.presence.OnlineUsers(ctx)
	if err != nil {
		log.Printf("Failed to read online users: %v", err)
		return
	}
	r.announceAll(models.EventOnlineUsers, models.OnlineUsersPayload{Users: users})
}

func (r *SessionRegistry) announceAll(t models.EventType, payload any) {
	data, err := encodeEvent(t, payload)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", t, err)
		return
	}
	r.router.BroadcastAll(data)
}

func (r *SessionRegistry) announceExcept(t models.EventType, payload any, connID string) {
	data, err := encodeEvent(t, payload)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", t, err)
		return
	}
	r.router.BroadcastExcept(data, connID)
}

func encodeEvent(t models.EventType, payload any) ([]byte, error) {
	event, err := models.NewEvent(t, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(event)
}
