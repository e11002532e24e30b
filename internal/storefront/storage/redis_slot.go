package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSlot stores the guest cart under guest_cart:<guestID>, letting several
// storefront processes share one browsing session. The TTL is refreshed on write.
type RedisSlot struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisSlot(client *redis.Client, guestID string, ttl time.Duration) *RedisSlot {
	return &RedisSlot{client: client, key: slotKey(guestID), ttl: ttl}
}

func slotKey(guestID string) string {
	return fmt.Sprintf("guest_cart:%s", guestID)
}

func (r *RedisSlot) Read(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *RedisSlot) Write(ctx context.Context, data []byte) error {
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisSlot) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
