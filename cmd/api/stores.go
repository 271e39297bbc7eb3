package main

import (
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/session-gate/internal/config"
	"github.com/yourusername/session-gate/internal/user"
)

// setupUserStore は cfg.UserStore に応じたユーザーストアと、その後始末関数を返します。
func setupUserStore(cfg *config.Config) (user.Store, func() error, error) {
	switch cfg.UserStore {
	case config.StoreRedis:
		opt, err := redis.ParseURL(cfg.UserRedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse USER_REDIS_URL: %w", err)
		}
		redisClient := redis.NewClient(opt)
		return user.NewRedisStore(redisClient, 0), redisClient.Close, nil
	case config.StoreSQLite:
		store, err := user.OpenSQLite(cfg.UserSQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return user.NewMemoryStore(), func() error { return nil }, nil
	}
}
