package redis

import (
	"context"
	"fmt"

	"chainpay-gateway/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewClient connects the shared Redis client that backs the gateway's
// rate-limit counters and the readiness check. The connection is
// verified with a ping before the client is handed out; a gateway that
// cannot reach Redis must not start serving merchant traffic.
func NewClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	log.Info().
		Str("addr", cfg.Addr()).
		Int("db", cfg.DB).
		Msg("redis connection established")

	return client, nil
}
