package redis_decorator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/redis/go-redis/v9"
)

// ProductCache 以 JSON 存放商品快照, key = {prefix}:product:{id}
type ProductCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewProductCache(client *redis.Client, prefix string, ttl time.Duration) *ProductCache {
	if client == nil {
		panic("NewProductCache: redis client cannot be nil")
	}
	return &ProductCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *ProductCache) key(id int64) string {
	var builder strings.Builder
	builder.Grow(len(c.prefix) + 30)
	builder.WriteString(c.prefix)
	builder.WriteString(":product:")
	builder.WriteString(strconv.FormatInt(id, 10))
	return builder.String()
}

func (c *ProductCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get returns (nil, nil) on a miss.
func (c *ProductCache) Get(ctx context.Context, id int64) (*model.Product, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get product %d: %w", id, err)
	}
	var p model.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode cached product %d: %w", id, err)
	}
	return &p, nil
}

// MGet 回傳命中的商品與未命中的 id
func (c *ProductCache) MGet(ctx context.Context, ids []int64) (map[int64]model.Product, []int64, error) {
	hits := make(map[int64]model.Product, len(ids))
	if len(ids) == 0 {
		return hits, nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("redis mget products: %w", err)
	}

	var misses []int64
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			misses = append(misses, ids[i])
			continue
		}
		var p model.Product
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			misses = append(misses, ids[i])
			continue
		}
		hits[ids[i]] = p
	}
	return hits, misses, nil
}

func (c *ProductCache) Set(ctx context.Context, products ...model.Product) error {
	if len(products) == 0 {
		return nil
	}
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i := range products {
			raw, err := json.Marshal(&products[i])
			if err != nil {
				return err
			}
			pipe.Set(ctx, c.key(products[i].ID), raw, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set products: %w", err)
	}
	return nil
}

func (c *ProductCache) Delete(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete products: %w", err)
	}
	return nil
}
