package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps values in Redis under a key prefix, so several
// profiles can share one server.
type RedisStorage struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisStorage stores keys as prefix + ":" + key.
func NewRedisStorage(rdb redis.UniversalClient, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = "marketctl:session"
	}
	return &RedisStorage{rdb: rdb, prefix: prefix}
}

func (r *RedisStorage) key(k string) string {
	return r.prefix + ":" + k
}

func (r *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (r *RedisStorage) SetMany(ctx context.Context, values map[string]string) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, r.key(k), v, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, r.key(k))
	}
	if err := r.rdb.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
