package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jellydator/ttlcache/v3"
)

const DefaultCacheTTL = 10 * time.Minute

// Cache stores rendered summaries per city.
type Cache interface {
	Get(ctx context.Context, city string) (string, bool)
	Set(ctx context.Context, city, summary string) error
}

func cacheKey(city string) string {
	return fmt.Sprintf("weather:%s", strings.ToLower(city))
}

// RedisCache keeps summaries in redis under "weather:<city>".
type RedisCache struct {
	log    *slog.Logger
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisCache connects to redis. A failed ping is returned so the caller
// can decide to run without caching.
func NewRedisCache(ctx context.Context, cfg RedisConfig, log *slog.Logger) (*RedisCache, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("Connected to Redis cache", "addr", cfg.Addr)

	return &RedisCache{log: log, client: client, ttl: cfg.TTL}, nil
}

func (c *RedisCache) Get(ctx context.Context, city string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	data, err := c.client.Get(ctx, cacheKey(city)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("failed to read weather cache", "city", city, "error", err)
		}
		return "", false
	}
	return data, true
}

func (c *RedisCache) Set(ctx context.Context, city, summary string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return c.client.Set(ctx, cacheKey(city), summary, c.ttl).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// MemoryCache keeps summaries in process when redis is not available.
type MemoryCache struct {
	items *ttlcache.Cache[string, string]
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{items: ttlcache.New(
		ttlcache.WithTTL[string, string](ttl),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)}
}

func (c *MemoryCache) Get(_ context.Context, city string) (string, bool) {
	item := c.items.Get(cacheKey(city))
	if item == nil {
		return "", false
	}
	return item.Value(), true
}

func (c *MemoryCache) Set(_ context.Context, city, summary string) error {
	c.items.Set(cacheKey(city), summary, ttlcache.DefaultTTL)
	return nil
}
