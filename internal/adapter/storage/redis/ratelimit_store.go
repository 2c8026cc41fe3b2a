package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RateLimitStore throttles merchant API traffic with fixed-window
// counters in Redis. Keys are scoped by caller-supplied key plus
// window id, so counters from different merchants and route groups
// never collide.
type RateLimitStore struct {
	client *goredis.Client
	prefix string
}

// NewRateLimitStore creates the Redis-backed throttle store.
func NewRateLimitStore(client *goredis.Client) *RateLimitStore {
	return &RateLimitStore{
		client: client,
		prefix: "ratelimit:",
	}
}

// RateLimitResult is the outcome of one throttle check; Remaining and
// ResetAt feed the X-RateLimit response headers.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}

// Allow counts one request against the key's current fixed window and
// reports whether it fits under limit. The window id is derived from
// wall-clock time, so every gateway instance sharing the Redis node
// agrees on window boundaries.
func (s *RateLimitStore) Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error) {
	now := time.Now()
	windowID := now.Unix() / int64(window.Seconds())
	redisKey := fmt.Sprintf("%s%s:%d", s.prefix, key, windowID)

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis rate limit incr: %w", err)
	}

	// First increment opens the window; the extra second keeps the key
	// alive across the boundary so late readers still see it.
	if count == 1 {
		s.client.Expire(ctx, redisKey, window+time.Second)
	}

	resetAt := (windowID + 1) * int64(window.Seconds())
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &RateLimitResult{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
