package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"liveboard/internal/models"
)

const (
	onlineKey        = "presence:online"
	cursorKeyPrefix  = "presence:cursor:"
	bindingKeyPrefix = "presence:conn:"
)

// Presence is the access layer over the shared store for the online-user
// set, the cursor map, and the username->connection binding map. Each
// operation is atomic per key; composite invariants ("online implies
// bound") are maintained by call ordering in the session registry, which
// is the only writer of these keys.
type Presence struct {
	kv KV
}

// NewPresence wraps a KV with the presence key layout.
func NewPresence(kv KV) *Presence {
	return &Presence{kv: kv}
}

// AddOnline adds a username to the presence set.
func (p *Presence) AddOnline(ctx context.Context, username string) error {
	return p.kv.SetAdd(ctx, onlineKey, username)
}

// RemoveOnline removes a username from the presence set and reports
// whether it was actually present.
func (p *Presence) RemoveOnline(ctx context.Context, username string) (bool, error) {
	return p.kv.SetRemove(ctx, onlineKey, username)
}

// OnlineUsers returns the full presence set, sorted for stable fan-out.
func (p *Presence) OnlineUsers(ctx context.Context) ([]string, error) {
	users, err := p.kv.SetMembers(ctx, onlineKey)
	if err != nil {
		return nil, err
	}
	sort.Strings(users)
	return users, nil
}

// SetCursor records a user's live cursor position.
func (p *Presence) SetCursor(ctx context.Context, cursor models.CursorPosition) error {
	raw, err := json.Marshal(cursor)
	if err != nil {
		return fmt.Errorf("failed to encode cursor for %s: %w", cursor.Username, err)
	}
	return p.kv.Set(ctx, cursorKeyPrefix+cursor.Username, string(raw))
}

// DeleteCursor drops a user's cursor record.
func (p *Presence) DeleteCursor(ctx context.Context, username string) error {
	return p.kv.Delete(ctx, cursorKeyPrefix+username)
}

// SetBinding records which connection currently owns a username.
func (p *Presence) SetBinding(ctx context.Context, username, connID string) error {
	return p.kv.Set(ctx, bindingKeyPrefix+username, connID)
}

// GetBinding returns the connection ID bound to a username, if any.
func (p *Presence) GetBinding(ctx context.Context, username string) (string, bool, error) {
	return p.kv.Get(ctx, bindingKeyPrefix+username)
}

// DeleteBinding drops a username's connection binding.
func (p *Presence) DeleteBinding(ctx context.Context, username string) error {
	return p.kv.Delete(ctx, bindingKeyPrefix+username)
}

// Reset clears all ephemeral presence state. Called once at process
// startup so a crashed instance's leftovers don't show as online users.
// Cursor and binding keys are swept by prefix scan rather than derived
// from the online set: a crash between the per-key cleanup writes can
// orphan keys whose user is no longer in the set.
func (p *Presence) Reset(ctx context.Context) error {
	if err := p.kv.Delete(ctx, onlineKey); err != nil {
		return err
	}
	for _, prefix := range []string{cursorKeyPrefix, bindingKeyPrefix} {
		keys, err := p.kv.Keys(ctx, prefix)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := p.kv.Delete(ctx, key); err != nil {
				return err
			}
		}
	}
	return nil
}
