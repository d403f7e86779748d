// Package cache stores generated answers in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ekisa-team/campus-assistant/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "campus-assistant:answer:"
	defaultTTL = 10 * time.Minute
)

// AnswerCache caches answers keyed by the normalised question.
type AnswerCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to Redis. It returns nil without error when no address is configured.
func New(ctx context.Context, cfg config.CacheConfig) (*AnswerCache, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: 2 * time.Second,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to cache at %s: %w", cfg.RedisAddr, err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &AnswerCache{rdb: rdb, ttl: ttl}, nil
}

// Key derives the cache key of a question: SHA-256 over the lower-cased,
// whitespace-collapsed text.
func Key(question string) string {
	normalised := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	sum := sha256.Sum256([]byte(normalised))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached answer, if any.
func (c *AnswerCache) Get(ctx context.Context, question string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, Key(question)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get: %w", err)
	}
	return val, true, nil
}

// Set stores an answer with the configured TTL.
func (c *AnswerCache) Set(ctx context.Context, question, answer string) error {
	if err := c.rdb.Set(ctx, Key(question), answer, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (c *AnswerCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the client.
func (c *AnswerCache) Close() error {
	return c.rdb.Close()
}
