package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anandpillai/loantrack/internal/domain"
)

// StatsCache keeps the derived dashboard summary in Redis so repeat dashboard
// loads skip the loan scan. It is advisory: every miss or failure falls back
// to an authoritative read, and ledger mutations invalidate the entry.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

func statsKey(userID string) string {
	return fmt.Sprintf("dashboard:stats:%s", userID)
}

func (c *StatsCache) Get(ctx context.Context, userID string) (*domain.DashboardStats, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, statsKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("dashboard cache read failed", "user_id", userID, "error", err)
		}
		return nil, false
	}

	var stats domain.DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		slog.Warn("dashboard cache entry corrupt", "user_id", userID, "error", err)
		return nil, false
	}

	return &stats, true
}

func (c *StatsCache) Set(ctx context.Context, userID string, stats *domain.DashboardStats) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, statsKey(userID), raw, c.ttl).Err(); err != nil {
		slog.Warn("dashboard cache write failed", "user_id", userID, "error", err)
	}
}

func (c *StatsCache) Invalidate(ctx context.Context, userID string) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Del(ctx, statsKey(userID)).Err(); err != nil {
		slog.Warn("dashboard cache invalidation failed", "user_id", userID, "error", err)
	}
}
