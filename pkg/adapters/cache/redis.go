package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/urltrimmer/url-trimmer/pkg/ports"
)

const keyPrefix = "link:"

// RedisCache holds code -> target URL entries for the redirect path.
type RedisCache struct {
	rdb *redis.Client
}

func ConnectRedis(addr, password string) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{rdb: rdb}, nil
}

func (c *RedisCache) Get(ctx context.Context, code string) (string, bool, error) {
	target, err := c.rdb.Get(ctx, keyPrefix+code).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return target, true, nil
}

func (c *RedisCache) Set(ctx context.Context, code, originalURL string, ttl time.Duration) error {
	return c.rdb.Set(ctx, keyPrefix+code, originalURL, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, code string) error {
	return c.rdb.Del(ctx, keyPrefix+code).Err()
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

var _ ports.LinkCache = (*RedisCache)(nil)
