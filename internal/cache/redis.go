package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const (
	allProductsKey = "products:all"
	generationKey  = "products:generation"
)

// listKey names the listing of one generation. Superseded generations are
// never read again and expire with the TTL.
func listKey(generation int64) string {
	return fmt.Sprintf("%s:%d", allProductsKey, generation)
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisCache connects to addr and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration, logger zerolog.Logger) (ProductCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger = logger.With().Str("component", "product-cache").Logger()
	logger.Info().Str("addr", addr).Msg("connected to redis")

	return &redisCache{client: client, ttl: ttl, logger: logger}, nil
}

func (c *redisCache) GetAll(ctx context.Context) ([]model.Product, int64, bool, error) {
	generation, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, fmt.Errorf("failed to read product cache generation: %w", err)
	}

	data, err := c.client.Get(ctx, listKey(generation)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, generation, false, nil
		}
		return nil, 0, false, fmt.Errorf("failed to read product cache: %w", err)
	}

	var products []model.Product
	if err := json.Unmarshal(data, &products); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		c.logger.Warn().Err(err).Msg("discarding undecodable product cache entry")
		_ = c.client.Del(ctx, listKey(generation)).Err()
		return nil, generation, false, nil
	}
	return products, generation, true, nil
}

func (c *redisCache) SetAll(ctx context.Context, generation int64, products []model.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to encode products: %w", err)
	}
	if err := c.client.Set(ctx, listKey(generation), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write product cache: %w", err)
	}
	return nil
}

func (c *redisCache) Invalidate(ctx context.Context) error {
	generation, err := c.client.Incr(ctx, generationKey).Result()
	if err != nil {
		return fmt.Errorf("failed to invalidate product cache: %w", err)
	}
	c.logger.Debug().Int64("generation", generation).Msg("product cache invalidated")
	return nil
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
