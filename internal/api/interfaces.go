package api

import (
	"context"

	"liveboard/internal/models"
)

/*
LEARNING: CONSUMER-DRIVEN INTERFACES (Go Idiom)

This package is the CONSUMER of the session registry and document store,
so the interfaces it needs live HERE. Handlers only declare the methods
they actually call, which keeps them trivial to fake in tests and avoids
circular dependencies.
*/

// SessionService is what handlers need from the session registry.
type SessionService interface {
	Login(ctx context.Context, username string) error
	ForceLogout(ctx context.Context, username string) error
}

// DocumentService is what handlers need from the document store.
type DocumentService interface {
	GetCurrent(ctx context.Context) (*models.Document, error)
	Replace(ctx context.Context, content models.DocumentContent) (*models.Document, error)
}
