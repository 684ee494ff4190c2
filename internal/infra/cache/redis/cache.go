package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"bmrengine/internal/app/middleware"
)

type Config struct {
	Address   string
	Password  string
	DB        int
	PoolSize  int
	KeyPrefix string
}

func NewClient(cfg Config) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func Ping(ctx context.Context, client *goredis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// EstimateCache stores encoded estimates as `SET key value EX ttl`.
type EstimateCache struct {
	client goredis.Cmdable
	prefix string
}

func NewEstimateCache(client goredis.Cmdable, prefix string) *EstimateCache {
	return &EstimateCache{client: client, prefix: prefix}
}

type cacheValue struct {
	Payload  []byte    `json:"payload"`
	StoredAt time.Time `json:"stored_at"`
}

func (c *EstimateCache) Get(ctx context.Context, key string) (middleware.CacheRecord, bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return middleware.CacheRecord{}, false, nil
		}
		return middleware.CacheRecord{}, false, err
	}
	var v cacheValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return middleware.CacheRecord{}, false, fmt.Errorf("redis cache: decode %s: %w", key, err)
	}
	return middleware.CacheRecord{Key: key, Payload: v.Payload, StoredAt: v.StoredAt}, true, nil
}

// Set writes rec; a non-positive ttl keeps the key without expiry.
func (c *EstimateCache) Set(ctx context.Context, rec middleware.CacheRecord, ttl time.Duration) error {
	raw, err := json.Marshal(cacheValue{Payload: rec.Payload, StoredAt: rec.StoredAt})
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	return c.client.Set(ctx, c.key(rec.Key), raw, ttl).Err()
}

func (c *EstimateCache) key(k string) string {
	return c.prefix + k
}

var _ middleware.CacheStore = (*EstimateCache)(nil)
