package store

import (
	"context"
	"sort"
	"testing"
)

func TestMemoryKV_GetAbsentKey(t *testing.T) {
	kv := NewMemoryKV()
	_, ok, err := kv.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if ok {
		t.Error("Get reported a value for an absent key")
	}
}

func TestMemoryKV_SetGetDelete(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	if err := kv.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	val, ok, err := kv.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get after Set: val=%q ok=%v err=%v", val, ok, err)
	}
	if val != "v" {
		t.Errorf("got %q, want %q", val, "v")
	}

	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "k"); ok {
		t.Error("key still present after Delete")
	}
}

func TestMemoryKV_SetOperations(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	kv.SetAdd(ctx, "s", "alice")
	kv.SetAdd(ctx, "s", "bob")
	kv.SetAdd(ctx, "s", "alice") // duplicate add is a no-op

	members, err := kv.SetMembers(ctx, "s")
	if err != nil {
		t.Fatalf("SetMembers returned error: %v", err)
	}
	sort.Strings(members)
	if len(members) != 2 || members[0] != "alice" || members[1] != "bob" {
		t.Errorf("got members %v, want [alice bob]", members)
	}

	removed, err := kv.SetRemove(ctx, "s", "alice")
	if err != nil {
		t.Fatalf("SetRemove returned error: %v", err)
	}
	if !removed {
		t.Error("SetRemove should report true for a present member")
	}

	removed, _ = kv.SetRemove(ctx, "s", "alice")
	if removed {
		t.Error("SetRemove should report false for an absent member")
	}

	removed, _ = kv.SetRemove(ctx, "nosuchset", "x")
	if removed {
		t.Error("SetRemove on a missing set should report false")
	}
}

func TestMemoryKV_DeleteRemovesSets(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	kv.SetAdd(ctx, "s", "alice")
	if err := kv.Delete(ctx, "s"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	members, _ := kv.SetMembers(ctx, "s")
	if len(members) != 0 {
		t.Errorf("set still has members after Delete: %v", members)
	}
}

func TestMemoryKV_KeysByPrefix(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	kv.Set(ctx, "presence:cursor:alice", "{}")
	kv.Set(ctx, "presence:conn:alice", "c1")
	kv.SetAdd(ctx, "presence:online", "alice")

	keys, err := kv.Keys(ctx, "presence:cursor:")
	if err != nil {
		t.Fatalf("Keys returned error: %v", err)
	}
	if len(keys) != 1 || keys[0] != "presence:cursor:alice" {
		t.Errorf("got keys %v, want [presence:cursor:alice]", keys)
	}

	keys, _ = kv.Keys(ctx, "presence:")
	if len(keys) != 3 {
		t.Errorf("prefix scan should see values and sets alike, got %v", keys)
	}
}
