package store

import (
	"context"
	"fmt"
	"log"

	"liveboard/internal/config"

	"github.com/redis/go-redis/v9"
)

/*
LEARNING: REDIS AS THE SHARED PRESENCE SUBSTRATE

Ephemeral state (online set, cursors, bindings) must be visible to every
server instance, so it lives in Redis rather than process memory. Each
command is atomic per key, which is all the presence layer relies on.
*/

// RedisKV implements KV on a Redis client.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV connects to Redis and verifies the connection with a ping.
func NewRedisKV(ctx context.Context, cfg *config.Config) (*RedisKV, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	log.Printf("✓ Redis connected at %s", cfg.RedisAddr)

	return &RedisKV{client: client}, nil
}

// Close releases the underlying client.
func (r *RedisKV) Close() error {
	return r.client.Close()
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: GET %s: %v", ErrStoreUnavailable, key, err)
	}
	return val, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("%w: SET %s: %v", ErrStoreUnavailable, key, err)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: DEL %s: %v", ErrStoreUnavailable, key, err)
	}
	return nil
}

// Keys lists keys by prefix. Only the startup presence sweep uses this,
// so the blocking KEYS command is acceptable here.
func (r *RedisKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := r.client.Keys(ctx, prefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("%w: KEYS %s*: %v", ErrStoreUnavailable, prefix, err)
	}
	return keys, nil
}

func (r *RedisKV) SetAdd(ctx context.Context, key, member string) error {
	if err := r.client.SAdd(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("%w: SADD %s: %v", ErrStoreUnavailable, key, err)
	}
	return nil
}

func (r *RedisKV) SetRemove(ctx context.Context, key, member string) (bool, error) {
	n, err := r.client.SRem(ctx, key, member).Result()
	if err != nil {
		return false, fmt.Errorf("%w: SREM %s: %v", ErrStoreUnavailable, key, err)
	}
	return n > 0, nil
}

func (r *RedisKV) SetMembers(ctx context.Context, key string) ([]string, error) {
	members, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: SMEMBERS %s: %v", ErrStoreUnavailable, key, err)
	}
	return members, nil
}
