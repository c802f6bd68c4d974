package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const cachePrefix = "leaderboard:"

// Cache keeps rendered leaderboards in Redis for a short TTL. A nil *Cache
// is valid and caches nothing.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	if rdb == nil || ttl <= 0 {
		return nil
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

func cacheKey(kind string, q Query) string {
	return fmt.Sprintf("%s%s:%s:%s:%s:%s:%s", cachePrefix, kind, q.CompID, q.TeamID, q.Date, q.StartDate, q.EndDate)
}

// Get decodes a cached value into dst and reports a hit.
func (c *Cache) Get(ctx context.Context, kind string, q Query, dst interface{}) bool {
	if c == nil {
		return false
	}
	val, err := c.rdb.Get(ctx, cacheKey(kind, q)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("Leaderboard cache read failed", "error", err)
		}
		return false
	}
	return json.Unmarshal(val, dst) == nil
}

func (c *Cache) Set(ctx context.Context, kind string, q Query, v interface{}) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(kind, q), b, c.ttl).Err(); err != nil {
		slog.Warn("Leaderboard cache write failed", "error", err)
	}
}

// Invalidate deletes every cached leaderboard.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	var cursor uint64
	cleared := 0
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, cachePrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("Leaderboard cache invalidation failed", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("Leaderboard cache invalidation failed", "error", err)
				return
			}
			cleared += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if cleared > 0 {
		slog.Debug("Cleared leaderboard cache", "keys", cleared)
	}
}
