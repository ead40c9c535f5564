package models

import (
	"encoding/json"
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// DocumentContent is the whole-document payload clients exchange.
// The server never inspects it - updates are full-content replaces
// (last-writer-wins), so tables and users stay opaque JSON.
type DocumentContent struct {
	Tables []json.RawMessage `json:"tables"`
	Users  []json.RawMessage `json:"users"`
}

// EmptyContent is the content a fresh deployment starts with.
func EmptyContent() DocumentContent {
	return DocumentContent{
		Tables: []json.RawMessage{},
		Users:  []json.RawMessage{},
	}
}

// Document is the single durable shared document.
// Learning: Using KSUID instead of UUID provides:
// - Time-based sorting (first 32 bits are timestamp)
// - Better database index performance (sequential, less B-tree fragmentation)
// - Smaller string representation (27 chars vs 36 for UUID)
type Document struct {
	ID        string          `json:"id" gorm:"type:char(27);primaryKey"`
	Content   DocumentContent `json:"content" gorm:"type:jsonb;serializer:json;not null"`
	CreatedAt time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate hook generates KSUID before inserting
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = ksuid.New().String()
	}
	return nil
}
