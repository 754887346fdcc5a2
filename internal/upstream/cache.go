package upstream

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/saude-console/internal/infra"
	"go.uber.org/zap"
)

// Cache — общий кэш тел успешных GET-ответов. Склеивает одинаковые
// опросы от многих открытых страниц в пределах короткого TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
}

// RedisCache — реализация поверх Redis. Nil-ресивер и пустой клиент = кэш выключен.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With(zap.String("mod", "upstream-cache")),
	}
}

func (c *RedisCache) Enabled() bool {
	return c != nil && c.rdb != nil && c.ttl > 0
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	body, err := c.rdb.Get(ctx, infra.GetUpstreamCacheKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// Redis недоступен — просто идем в бэкенд
			c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return body, true
}

func (c *RedisCache) Set(ctx context.Context, key string, body []byte) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Set(ctx, infra.GetUpstreamCacheKey(key), body, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}
