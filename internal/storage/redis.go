package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisGateway stores chunk bytes as plain redis string values. Every key
// carries a safety TTL so that chunks of a crashed session still disappear
// even if the expiry sweep never runs.
type RedisGateway struct {
	client  *redis.Client
	signer  *Signer
	baseURL string
	keyTTL  time.Duration
}

func NewRedisGateway(client *redis.Client, signer *Signer, baseURL string, keyTTL time.Duration) *RedisGateway {
	return &RedisGateway{
		client:  client,
		signer:  signer,
		baseURL: baseURL,
		keyTTL:  keyTTL,
	}
}

func (g *RedisGateway) Put(ctx context.Context, key string, data []byte) error {
	if err := g.client.Set(ctx, key, data, g.keyTTL).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (g *RedisGateway) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := g.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (g *RedisGateway) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return signedURL(g.signer, g.baseURL, key, ttl, time.Now()), nil
}

func (g *RedisGateway) DeleteMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := g.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
