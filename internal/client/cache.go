package client

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// Tags group cached GraphQL results by the entities they read.
const (
	TagOrders     = "orders"
	TagProducts   = "products"
	TagCategories = "categories"
	TagInventory  = "inventory"
	TagUsers      = "users"
	TagCart       = "cart"
)

// Cache stores GraphQL query results. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, tags []string) error
	Invalidate(ctx context.Context, tags ...string) error
}

// NopCache never hits.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, bool, error)   { return nil, false, nil }
func (NopCache) Set(context.Context, string, []byte, []string) error { return nil }
func (NopCache) Invalidate(context.Context, ...string) error         { return nil }

// RedisCache keeps each result under its own key with a TTL and records the
// key in one set per tag, so invalidating a tag deletes every result that read it.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func resultKey(key string) string { return "gql:result:" + key }
func tagKey(tag string) string    { return "gql:tag:" + tag }

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, resultKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, tags []string) error {
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, resultKey(key), value, c.ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, tagKey(tag), resultKey(key))
		pipe.Expire(ctx, tagKey(tag), 2*c.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (c *RedisCache) Invalidate(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		keys, err := c.rdb.SMembers(ctx, tagKey(tag)).Result()
		if err != nil {
			return err
		}
		keys = append(keys, tagKey(tag))
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			return err
		}
	}
	return nil
}
