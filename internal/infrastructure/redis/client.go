package redis

import (
	"context"
	"fmt"
	"time"

	"recipio/internal/infrastructure/config"
	"recipio/internal/pkg/common"

	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// NewClient connects to redis when it is enabled. It returns (nil, nil)
// when redis is disabled so callers fall back to in-process limits.
func NewClient(ctx context.Context, cfg *config.Config) (*goredis.Client, error) {
	if !cfg.Redis.Enabled {
		common.LogInfo("Redis disabled")
		return nil, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("Redis connected",
		zap.String("addr", cfg.Redis.Addr),
		zap.Int("db", cfg.Redis.DB),
	)

	return client, nil
}
