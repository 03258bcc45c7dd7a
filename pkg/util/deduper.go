package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper remembers request keys in Redis so a retried write is applied once.
type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Deduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Deduper{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// AcquireOnce tries to acquire a dedup lock for scope + key.
// returns true if this is the FIRST time processing
// returns false if it's a duplicate
func (d *Deduper) AcquireOnce(ctx context.Context, scope, key string) bool {
	redisKey := fmt.Sprintf("dedup:%s:%s", scope, key)

	ok, err := d.rdb.SetNX(ctx, redisKey, 1, d.ttl).Result()
	if err != nil {
		// fail open while Redis is unavailable
		d.logger.Warn("Redis dedup check failed, allowing processing",
			zap.String("scope", scope),
			zap.String("key", key),
			zap.Error(err),
		)
		return true
	}

	if !ok {
		d.logger.Info("Skipped duplicated request",
			zap.String("scope", scope),
			zap.String("dedup_key", redisKey),
		)
	}
	return ok
}

// Release drops a key so the request can be retried, used when the first attempt failed.
func (d *Deduper) Release(ctx context.Context, scope, key string) {
	redisKey := fmt.Sprintf("dedup:%s:%s", scope, key)
	if err := d.rdb.Del(ctx, redisKey).Err(); err != nil {
		d.logger.Warn("Failed to release dedup key",
			zap.String("dedup_key", redisKey),
			zap.Error(err),
		)
	}
}
