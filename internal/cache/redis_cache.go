package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

type receiptValue struct {
	Status     string    `json:"status"`
	ReportedAt time.Time `json:"reportedAt"`
}

func (c *RedisCache) StoreReceipt(ctx context.Context, jobID int64, status string, reportedAt time.Time) error {
	key := fmt.Sprintf("sms:receipt:%d", jobID)
	val := receiptValue{
		Status:     status,
		ReportedAt: reportedAt.UTC(),
	}

	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}
