// Package redisclient adapts *redis.Client (github.com/redis/go-redis/v9)
// to sessionstore.Client's narrow interface.
package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Adapter wraps a *redis.Client to satisfy sessionstore.Client.
type Adapter struct {
	rdb *redis.Client
}

// New wraps an existing *redis.Client.
func New(rdb *redis.Client) *Adapter {
	return &Adapter{rdb: rdb}
}

func (a *Adapter) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return a.rdb.Set(ctx, key, value, ttl).Err()
}

func (a *Adapter) Get(ctx context.Context, key string) (string, error) {
	return a.rdb.Get(ctx, key).Result()
}

func (a *Adapter) Del(ctx context.Context, key string) error {
	return a.rdb.Del(ctx, key).Err()
}

func (a *Adapter) Ping(ctx context.Context) error {
	return a.rdb.Ping(ctx).Err()
}
