package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// OnceGuard suppresses duplicate submissions of the same toggle within a
// short window: a SetNX key per (operation, entity id). It replaces the
// client-side "in-flight" id set — duplicates are rejected server-side
// instead of being hidden by UI state.
type OnceGuard struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewOnceGuard(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *OnceGuard {
	return &OnceGuard{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// Acquire returns true when this is the first submission of op on id
// inside the window, false for a duplicate. When redis is unavailable the
// operation is allowed through; correctness still holds because updates
// are version-checked at the store.
func (g *OnceGuard) Acquire(ctx context.Context, op string, id int64) bool {
	if g == nil || g.rdb == nil {
		return true
	}

	key := fmt.Sprintf("inflight:%s:%d", op, id)

	ok, err := g.rdb.SetNX(ctx, key, 1, g.ttl).Result()
	if err != nil {
		if g.logger != nil {
			g.logger.Warn("Redis once-guard check failed, allowing operation",
				zap.String("operation", op),
				zap.Int64("id", id),
				zap.Error(err),
			)
		}
		return true
	}

	if !ok && g.logger != nil {
		g.logger.Info("Rejected duplicate submission",
			zap.String("operation", op),
			zap.Int64("id", id),
			zap.String("guard_key", key),
		)
	}

	return ok
}

// Release drops the guard key early so a finished toggle can be repeated
// without waiting out the TTL.
func (g *OnceGuard) Release(ctx context.Context, op string, id int64) {
	if g == nil || g.rdb == nil {
		return
	}
	key := fmt.Sprintf("inflight:%s:%d", op, id)
	if err := g.rdb.Del(ctx, key).Err(); err != nil && g.logger != nil {
		g.logger.Warn("Failed to release once-guard key", zap.String("guard_key", key), zap.Error(err))
	}
}
