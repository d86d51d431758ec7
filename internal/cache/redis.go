package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"storefront/internal/model"

	"github.com/redis/go-redis/v9"
)

const shippingKey = "shipping:quotes"

// RedisShippingCache stores quotes as fields of a single hash so that one
// DEL invalidates all of them.
type RedisShippingCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisShippingCache(client *redis.Client, ttl time.Duration) *RedisShippingCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RedisShippingCache{
		client:  client,
		baseTTL: ttl,
	}
}

func (r *RedisShippingCache) Get(ctx context.Context, countryCode string) (*model.ShippingQuote, error) {
	data, err := r.client.HGet(ctx, shippingKey, countryCode).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget failed: %w", err)
	}

	var quote model.ShippingQuote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, fmt.Errorf("unmarshal shipping quote failed: %w", err)
	}
	return &quote, nil
}

func (r *RedisShippingCache) Set(ctx context.Context, countryCode string, quote *model.ShippingQuote) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("marshal shipping quote failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(60)) * time.Second
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, shippingKey, countryCode, data)
	pipe.Expire(ctx, shippingKey, r.baseTTL+jitter)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis hset failed: %w", err)
	}
	return nil
}

func (r *RedisShippingCache) Invalidate(ctx context.Context) error {
	if err := r.client.Del(ctx, shippingKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
