package repository

import (
	"context"
	"fmt"

	"liveboard/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepositoryImpl persists username handles.
type UserRepositoryImpl struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepositoryImpl {
	return &UserRepositoryImpl{db: db}
}

// Upsert records a username, keeping the original creation time if the
// user already exists. Called on every login and join.
func (r *UserRepositoryImpl) Upsert(ctx context.Context, username string) error {
	user := &models.User{Username: username}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(user).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", username, err)
	}

	return nil
}
