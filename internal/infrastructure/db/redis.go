package db

import (
	"context"
	"fmt"

	"huntclub/internal/infrastructure/config"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis 建立 Redis client 並確認可連線；未設定位址則回傳 nil。
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := withPingTimeout(ctx)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
