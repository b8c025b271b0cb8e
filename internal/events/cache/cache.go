package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-events/internal/config"
	"ms-events/internal/logger"
	"ms-events/internal/models"
)

const listKey = "events:list"

// RedisListCache keeps the serialized event list in Redis for a short TTL.
// Every event mutation invalidates it.
type RedisListCache struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewRedisListCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisListCache {
	if log == nil {
		log = logger.Discard()
	}
	return &RedisListCache{Client: client, TTL: ttl, Logger: log}
}

// Connect opens a client for cfg and checks it with PING, retrying a few
// times while Redis starts.
func Connect(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var err error
	for i := 0; i < 5; i++ {
		if err = client.Ping(ctx).Err(); err == nil {
			log.Info("REDIS", fmt.Sprintf("✅ Redis connection successful (%s)", cfg.Addr))
			return client, nil
		}
		log.Error("REDIS", fmt.Sprintf("Failed to connect to Redis (attempt %d/5): %v", i+1, err))
		select {
		case <-ctx.Done():
			client.Close()
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	client.Close()
	return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
}

// Get returns the cached list. ok is false on a miss.
func (c *RedisListCache) Get(ctx context.Context) ([]models.Event, bool, error) {
	raw, err := c.Client.Get(ctx, listKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached event list: %w", err)
	}

	var events []models.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		// A corrupt entry is dropped and treated as a miss.
		c.Logger.Warn("REDIS", fmt.Sprintf("Dropping unreadable event list cache: %v", err))
		c.Client.Del(ctx, listKey)
		return nil, false, nil
	}
	return events, true, nil
}

func (c *RedisListCache) Set(ctx context.Context, events []models.Event) error {
	raw, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode event list: %w", err)
	}
	if err := c.Client.Set(ctx, listKey, raw, c.TTL).Err(); err != nil {
		return fmt.Errorf("cache event list: %w", err)
	}
	return nil
}

func (c *RedisListCache) Invalidate(ctx context.Context) error {
	if err := c.Client.Del(ctx, listKey).Err(); err != nil {
		return fmt.Errorf("invalidate event list: %w", err)
	}
	return nil
}
