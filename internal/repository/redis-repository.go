package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis_v9 "github.com/redis/go-redis/v9"
)

// RedisRepo wraps the cache client. All methods are no-ops on a nil client
// so the service runs without Redis.
type RedisRepo struct {
	client *redis_v9.Client
}

func NewRedisRepo(client *redis_v9.Client) *RedisRepo {
	return &RedisRepo{client: client}
}

func (rr *RedisRepo) Enabled() bool {
	return rr != nil && rr.client != nil
}

func (rr *RedisRepo) SaveStruct(ctx context.Context, key string, model any, ttl time.Duration) error {
	if !rr.Enabled() {
		return nil
	}
	val, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("error saving struct to cache: %w", err)
	}
	return rr.client.Set(ctx, key, val, ttl).Err()
}

func (rr *RedisRepo) GetStruct(ctx context.Context, key string, model any) error {
	if !rr.Enabled() {
		return redis_v9.Nil
	}
	coded, err := rr.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(coded, model)
}

func (rr *RedisRepo) SaveInt(ctx context.Context, key string, value int64, ttl time.Duration) error {
	if !rr.Enabled() {
		return nil
	}
	return rr.client.Set(ctx, key, value, ttl).Err()
}

func (rr *RedisRepo) GetInt(ctx context.Context, key string) int64 {
	if !rr.Enabled() {
		return 0
	}
	value, err := rr.client.Get(ctx, key).Int64()
	if err != nil {
		return 0
	}
	return value
}

func (rr *RedisRepo) Delete(ctx context.Context, keys ...string) error {
	if !rr.Enabled() || len(keys) == 0 {
		return nil
	}
	return rr.client.Del(ctx, keys...).Err()
}
