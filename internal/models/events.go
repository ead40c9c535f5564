package models

import "encoding/json"

/*
LEARNING: WIRE PROTOCOL

Every WebSocket frame carries one Event envelope: a type tag plus a raw
JSON payload. The payload is only decoded once the type is known, so a
malformed cursor update never breaks an unrelated handler.
*/

// EventType identifies a duplex-channel message.
type EventType string

const (
	// client -> server
	EventJoin        EventType = "join"
	EventCursorMove  EventType = "cursor_move"
	EventTableUpdate EventType = "table_update"

	// server -> clients
	EventUserJoined   EventType = "user_joined"
	EventUserLeft     EventType = "user_left"
	EventOnlineUsers  EventType = "online_users"
	EventUserCursor   EventType = "user_cursor"
	EventTableUpdated EventType = "table_updated"
)

// Event is the envelope for every duplex-channel message.
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinPayload binds the connection to a username.
type JoinPayload struct {
	Username string `json:"username"`
}

// CursorMovePayload is a client's own cursor; the server attaches the
// username before fanning it out as user_cursor.
type CursorMovePayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// UserPayload carries a bare username (user_joined, user_left).
type UserPayload struct {
	Username string `json:"username"`
}

// OnlineUsersPayload is the full presence snapshot sent to everyone.
type OnlineUsersPayload struct {
	Users []string `json:"users"`
}

// NewEvent marshals a payload into an envelope, ready to send.
func NewEvent(t EventType, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: t, Payload: raw}, nil
}
