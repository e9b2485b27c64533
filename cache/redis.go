// ABOUTME: Shared cache backend built on Redis
// ABOUTME: Keys are namespaced so clearing never touches foreign data
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisNamespace prefixes every key written by the Redis backend.
const DefaultRedisNamespace = "crmactivity:"

// RedisBackend stores entries in Redis under a namespace.
type RedisBackend struct {
	client    *redis.Client
	namespace string
}

// NewRedisBackend connects to addr, which may be host:port or a redis://
// URL, and verifies the connection.
func NewRedisBackend(ctx context.Context, addr, namespace string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{Addr: addr}
	}
	if namespace == "" {
		namespace = DefaultRedisNamespace
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisBackend{client: client, namespace: namespace}, nil
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.namespace+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.namespace+key, value, ttl).Err()
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.namespace+key).Err()
}

func (r *RedisBackend) DeletePrefix(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, r.namespace+prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.client.Del(ctx, batch...).Err()
	}
	return nil
}

func (r *RedisBackend) Clear(ctx context.Context) error {
	return r.DeletePrefix(ctx, "")
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}
