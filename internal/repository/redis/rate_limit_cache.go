package redis

import (
	"context"
	"fmt"
	"time"

	"rfid-admin-service/internal/client"
	"rfid-admin-service/internal/util"
)

const tenantRateLimitPrefix = "tenant_rate_limit:"

// RateLimitCache keeps fixed-window request counters per merchant tenant.
// The window state lives in Redis so every replica of this service shares
// the same budget.
type RateLimitCache struct {
	client   *client.RedisClient
	requests int
	window   time.Duration
}

func NewRateLimitCache(client *client.RedisClient, requests int, window time.Duration) *RateLimitCache {
	return &RateLimitCache{
		client:   client,
		requests: requests,
		window:   window,
	}
}

// Allow increments the tenant's counter for the current window and reports
// whether the request is still inside the budget. Window expiry is set on
// first increment only.
func (c *RateLimitCache) Allow(ctx context.Context, tenantKey string) (bool, error) {
	window := time.Now().Unix() / int64(c.window.Seconds())
	key := fmt.Sprintf("%s%s:%d", tenantRateLimitPrefix, tenantKey, window)

	count, err := c.client.Client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count == 1 {
		if err := c.client.Client.Expire(ctx, key, c.window).Err(); err != nil {
			util.Warn("Failed to set rate limit window expiry",
				util.String("key", key),
				util.ErrorField(err),
			)
		}
	}

	if count > int64(c.requests) {
		util.Debug("Tenant over rate limit",
			util.String("tenant", tenantKey),
			util.Int64("count", count),
			util.Int("limit", c.requests),
		)
		return false, nil
	}

	return true, nil
}

// Remaining reports how much of the tenant's budget is left in the current
// window. Diagnostic only; Allow is the enforcement path.
func (c *RateLimitCache) Remaining(ctx context.Context, tenantKey string) (int, error) {
	window := time.Now().Unix() / int64(c.window.Seconds())
	key := fmt.Sprintf("%s%s:%d", tenantRateLimitPrefix, tenantKey, window)

	count, err := c.client.Client.Get(ctx, key).Int64()
	if err != nil {
		// Missing key means an untouched window.
		return c.requests, nil
	}

	remaining := c.requests - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
