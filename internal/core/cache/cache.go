package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"fusion-recipes/internal/infrastructure/config"
)

// 後端種類
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Store 生成結果快取；未命中時回傳 common.ErrCacheMiss
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// New 依設定建立快取，停用時回傳 nil
func New(cfg config.CacheConfig) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Backend {
	case BackendRedis:
		store, err := NewRedisStore(cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendMemory, "":
		return NewManager(cfg), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// PromptKey 以建立者與提示詞雜湊作為快取鍵
func PromptKey(creatorID, system, user string) string {
	hash := sha256.Sum256([]byte(creatorID + "\x00" + system + "\x00" + user))
	return "prompt:" + hex.EncodeToString(hash[:])
}
