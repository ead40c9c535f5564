package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"liveboard/internal/models"

	"gorm.io/gorm"
)

// ErrNoDocument means the document table is empty. Initialization creates
// the single document at startup, so hitting this later is an invariant
// violation.
var ErrNoDocument = errors.New("no current document")

// DocumentRepositoryImpl holds exactly one current document using GORM.
// Learning: This is the IMPLEMENTATION. It doesn't know about any interface.
// The api package declares the interface it needs (consumer-driven).
type DocumentRepositoryImpl struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository
// Returns concrete type - "Accept interfaces, return structs"
func NewDocumentRepository(db *gorm.DB) *DocumentRepositoryImpl {
	return &DocumentRepositoryImpl{db: db}
}

// GetCurrent returns the most recently updated document.
func (r *DocumentRepositoryImpl) GetCurrent(ctx context.Context) (*models.Document, error) {
	var doc models.Document

	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current document: %w", err)
	}

	return &doc, nil
}

// Replace overwrites the current document's content in place.
// No optimistic-concurrency check: concurrent replaces resolve by
// last-writer-wins in store write order, and losers get no signal.
func (r *DocumentRepositoryImpl) Replace(ctx context.Context, content models.DocumentContent) (*models.Document, error) {
	doc, err := r.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}

	// UpdatedAt is bumped automatically by GORM, which keeps this row
	// the "current" one under most-recent-by-time selection.
	if err := r.db.WithContext(ctx).
		Model(doc).
		Update("content", content).Error; err != nil {
		return nil, fmt.Errorf("failed to replace document: %w", err)
	}

	doc.Content = content
	return doc, nil
}

// EnsureCurrent creates the single empty document if none exists yet.
// The check-then-insert is not transactionally guarded; two instances
// initializing at the same instant can both insert, which is tolerated
// as a rare startup race (GetCurrent still picks one winner).
func (r *DocumentRepositoryImpl) EnsureCurrent(ctx context.Context) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count documents: %w", err)
	}

	if count > 0 {
		return nil
	}

	doc := &models.Document{Content: models.EmptyContent()}
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("failed to create initial document: %w", err)
	}

	log.Printf("✓ Created initial empty document %s", doc.ID)
	return nil
}
