package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"gopherai-training/internal/ai"
)

const DefaultResponseTTL = 10 * time.Minute

// ResponseCache keeps provider chat results in redis, keyed by ai.CacheKey.
type ResponseCache struct {
	client *redisv9.Client
	ttl    time.Duration
	prefix string
}

func NewResponseCache(client *redisv9.Client, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultResponseTTL
	}
	return &ResponseCache{
		client: client,
		ttl:    ttl,
		prefix: "llm:response:",
	}
}

func (c *ResponseCache) Get(ctx context.Context, key string) (*ai.ChatResult, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get response failed: %w", err)
	}

	var res ai.ChatResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached response failed: %w", err)
	}
	return &res, true, nil
}

func (c *ResponseCache) Set(ctx context.Context, key string, result ai.ChatResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal response cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set response failed: %w", err)
	}
	return nil
}

// Purge drops every cached response, for use after the corpus or model changes.
func (c *ResponseCache) Purge(ctx context.Context) (int, error) {
	var cursor uint64
	removed := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", 200).Result()
		if err != nil {
			return removed, fmt.Errorf("redis scan responses failed: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("redis delete responses failed: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}
