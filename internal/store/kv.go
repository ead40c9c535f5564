package store

import (
	"context"
	"errors"
)

// ErrStoreUnavailable means the shared store could not serve the operation.
// Callers log and continue - presence is best-effort, never fatal.
var ErrStoreUnavailable = errors.New("shared store unavailable")

// KV is the capability the presence layer needs from a shared store:
// atomic per-key operations over opaque keys, readable and writable by
// every server process. Any key/value store with per-key atomicity
// satisfies it; there are deliberately no cross-key transactions.
type KV interface {
	// Get returns the value for key. ok is false if the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Delete removes a key whether it holds a value or a set.
	Delete(ctx context.Context, key string) error
	// Keys lists every key starting with prefix, values and sets alike.
	Keys(ctx context.Context, prefix string) ([]string, error)

	SetAdd(ctx context.Context, key, member string) error
	// SetRemove reports whether the member was actually in the set.
	SetRemove(ctx context.Context, key, member string) (removed bool, err error)
	SetMembers(ctx context.Context, key string) ([]string, error)
}
