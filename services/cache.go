package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	activeListingsKey = "listings:active"
	hotSearchKey      = "search:hot"
	listingViewsKey   = "rank:listing:views"
)

func listingKey(id string) string {
	return fmt.Sprintf("listing:%s", id)
}

// listingCache Redis缓存，rdb 为 nil 时全部为空操作
type listingCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func (c listingCache) get(ctx context.Context, key string, dst interface{}) bool {
	if c.rdb == nil {
		return false
	}
	cached, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(cached, dst) == nil
}

func (c listingCache) set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Debug("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// invalidate 清除在售列表及指定发布的缓存
func (c listingCache) invalidate(ctx context.Context, listingIDs ...string) {
	if c.rdb == nil {
		return
	}
	keys := []string{activeListingsKey}
	for _, id := range listingIDs {
		keys = append(keys, listingKey(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
