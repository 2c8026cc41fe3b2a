package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

// HealthCheck reports Redis reachability for the gateway's readiness
// endpoint. A failing check takes the gateway out of rotation before
// rate limiting starts failing open.
type HealthCheck struct {
	client *goredis.Client
}

// NewHealthCheck wraps the shared client for readiness checks.
func NewHealthCheck(client *goredis.Client) *HealthCheck {
	return &HealthCheck{client: client}
}

// Ping implements ports.HealthChecker.
func (h *HealthCheck) Ping(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}

// Name identifies this dependency in the health report.
func (h *HealthCheck) Name() string {
	return "redis"
}
