package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/certlab/certlab-backend/internal/config"
)

// SessionCache is the fast lane for live sessions: the start instant, the
// frozen question order and the autosaved answer hash, plus the worker
// queues. Implementations may lose entries; callers fall back to the
// attempt row.
type SessionCache interface {
	StoreStart(ctx context.Context, attemptID string, startedAt time.Time) error
	StoreOrder(ctx context.Context, attemptID string, order []string) error
	// Order returns the frozen question order, or nil on a cache miss.
	Order(ctx context.Context, attemptID string) ([]string, error)
	StoreAnswer(ctx context.Context, attemptID, questionID, answer string) error
	Answers(ctx context.Context, attemptID string) (map[string]string, error)
	EnqueuePersist(ctx context.Context, attemptID string) error
	EnqueueCleanup(ctx context.Context, attemptID string) error
}

// RedisSessionCache implements SessionCache on the shared Redis client using
// the central key builders.
type RedisSessionCache struct {
	rdb *redis.Client
}

// NewRedisSessionCache creates a RedisSessionCache.
func NewRedisSessionCache(rdb *redis.Client) *RedisSessionCache {
	return &RedisSessionCache{rdb: rdb}
}

func (c *RedisSessionCache) StoreStart(ctx context.Context, attemptID string, startedAt time.Time) error {
	return c.rdb.Set(ctx, config.CacheKey.AttemptStartKey(attemptID), startedAt.Format(time.RFC3339), 0).Err()
}

func (c *RedisSessionCache) StoreOrder(ctx context.Context, attemptID string, order []string) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, config.CacheKey.AttemptOrderKey(attemptID), raw, 0).Err()
}

func (c *RedisSessionCache) Order(ctx context.Context, attemptID string) ([]string, error) {
	raw, err := c.rdb.Get(ctx, config.CacheKey.AttemptOrderKey(attemptID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var order []string
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, err
	}
	return order, nil
}

func (c *RedisSessionCache) StoreAnswer(ctx context.Context, attemptID, questionID, answer string) error {
	return c.rdb.HSet(ctx, config.CacheKey.AttemptAnswersKey(attemptID), questionID, answer).Err()
}

func (c *RedisSessionCache) Answers(ctx context.Context, attemptID string) (map[string]string, error) {
	return c.rdb.HGetAll(ctx, config.CacheKey.AttemptAnswersKey(attemptID)).Result()
}

func (c *RedisSessionCache) EnqueuePersist(ctx context.Context, attemptID string) error {
	return c.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, attemptID).Err()
}

func (c *RedisSessionCache) EnqueueCleanup(ctx context.Context, attemptID string) error {
	return c.rdb.RPush(ctx, config.WorkerKey.SessionCleanupQueue, attemptID).Err()
}
