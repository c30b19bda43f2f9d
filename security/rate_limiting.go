package security

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a Redis fixed-window limiter keyed by user (when
// authenticated) or client IP. It protects the reservation and gate
// endpoints from hammering; Redis failures fail open.
type RateLimiter struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  int64(limit),
		window: window,
	}
}

// Guard is a router middleware for the API group.
func (r *RateLimiter) Guard(e *core.RequestEvent) error {
	ua := e.Request.Header.Get("User-Agent")
	if isSuspiciousUserAgent(ua) {
		return apis.NewApiError(http.StatusForbidden, "Access denied", nil)
	}

	key := "ratelimit:ip:" + e.RealIP()
	if e.Auth != nil {
		key = "ratelimit:user:" + e.Auth.Id
	}

	ctx := e.Request.Context()
	count, err := r.redis.Incr(ctx, key).Result()
	if err == nil {
		if count == 1 {
			r.redis.Expire(ctx, key, r.window)
		}
		if count > r.limit {
			return apis.NewApiError(http.StatusTooManyRequests, "Too many requests. Please try again later.", nil)
		}
	}

	return e.Next()
}

func isSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	lower := strings.ToLower(ua)
	for _, pattern := range suspicious {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// ResetKey clears a caller's window, used by support tooling.
func (r *RateLimiter) ResetKey(ctx context.Context, userID string) error {
	return r.redis.Del(ctx, fmt.Sprintf("ratelimit:user:%s", userID)).Err()
}
