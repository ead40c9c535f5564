package models

import "time"

// User is the durable record for a username handle. The username itself is
// the key - there is no separate internal ID and no credential material.
type User struct {
	Username  string    `json:"username" gorm:"type:text;primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// CursorPosition is a user's live cursor, kept only in the presence store.
// It exists from the first cursor_move after a join until logout/disconnect.
type CursorPosition struct {
	Username string `json:"username"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}
