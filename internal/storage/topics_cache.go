package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladvlasov256/YourDutchBot/internal/lesson"
)

// topicsTTL keeps one day's candidate list around for exactly one day;
// record dates make a stale hit impossible even if eviction lags.
const topicsTTL = 24 * time.Hour

// RedisConfig holds the topic-cache connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

// Normalize fills connection defaults.
func (c *RedisConfig) Normalize() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
}

// TopicsCache shares the day's fetched topics across users, so the
// first lesson start of the day pays for the news fetch and everyone
// else reads the cached list.
type TopicsCache struct {
	rdb *redis.Client
}

// NewTopicsCache connects to Redis and verifies the connection.
func NewTopicsCache(ctx context.Context, cfg RedisConfig) (*TopicsCache, error) {
	cfg.Normalize()
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &TopicsCache{rdb: rdb}, nil
}

func topicsKey(date string) string { return "topics:" + date }

// Topics returns the cached candidate list for date, or nil on a miss.
func (c *TopicsCache) Topics(ctx context.Context, date string) ([]lesson.Article, error) {
	raw, err := c.rdb.Get(ctx, topicsKey(date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("topics get: %w", err)
	}
	var topics []lesson.Article
	if err := json.Unmarshal(raw, &topics); err != nil {
		return nil, fmt.Errorf("topics decode: %w", err)
	}
	return topics, nil
}

// SetTopics stores the candidate list for date.
func (c *TopicsCache) SetTopics(ctx context.Context, date string, topics []lesson.Article) error {
	raw, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("topics encode: %w", err)
	}
	if err := c.rdb.Set(ctx, topicsKey(date), raw, topicsTTL).Err(); err != nil {
		return fmt.Errorf("topics set: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *TopicsCache) Close() error { return c.rdb.Close() }
