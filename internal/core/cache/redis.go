package cache

import (
	"context"
	"errors"
	"fmt"

	"fusion-recipes/internal/infrastructure/config"
	"fusion-recipes/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "fusion:generation:"

// RedisStore Redis 快取
type RedisStore struct {
	client *redis.Client
	config config.CacheConfig
}

// NewRedisStore 創建 Redis 快取並測試連線
func NewRedisStore(cfg config.CacheConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		config: cfg,
	}, nil
}

// Get 獲取緩存
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			common.LogCacheMiss(BackendRedis)
			return "", common.ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get cache: %w", err)
	}

	common.LogCacheHit(BackendRedis)
	return value, nil
}

// Set 設置緩存
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, redisKeyPrefix+key, value, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}
