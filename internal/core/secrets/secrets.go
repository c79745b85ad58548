package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fusion-recipes/internal/infrastructure/config"
	"fusion-recipes/internal/pkg/common"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 憑證來源
const (
	SourceEnv      = "env"
	SourceDatabase = "database"
)

// ErrNotFound 找不到憑證
var ErrNotFound = errors.New("upstream credential not found")

// Provider 取得上游模型憑證
type Provider interface {
	Fetch(ctx context.Context) (string, error)
}

// EnvProvider 從設定讀取憑證
type EnvProvider struct {
	key string
}

// NewEnvProvider 創建設定憑證來源
func NewEnvProvider(key string) *EnvProvider {
	return &EnvProvider{key: strings.TrimSpace(key)}
}

// Fetch 回傳設定中的憑證
func (p *EnvProvider) Fetch(ctx context.Context) (string, error) {
	if p.key == "" {
		return "", ErrNotFound
	}
	return p.key, nil
}

// Secret secrets 資料表
type Secret struct {
	ID             uint   `gorm:"primaryKey"`
	DeepseekAPIKey string `gorm:"column:deepseek_api_key"`
	CreatedAt      time.Time
}

// TableName 資料表名稱
func (Secret) TableName() string { return "secrets" }

// DBProvider 從 secrets 資料表讀取憑證
type DBProvider struct {
	db *gorm.DB
}

// NewDBProvider 創建資料庫憑證來源
func NewDBProvider(db *gorm.DB) *DBProvider {
	return &DBProvider{db: db}
}

// Fetch 讀取第一筆憑證
func (p *DBProvider) Fetch(ctx context.Context) (string, error) {
	var key string
	err := p.db.WithContext(ctx).
		Model(&Secret{}).
		Select("deepseek_api_key").
		Limit(1).
		Scan(&key).Error
	if err != nil {
		return "", fmt.Errorf("failed to load credential: %w", err)
	}
	if strings.TrimSpace(key) == "" {
		return "", ErrNotFound
	}
	return key, nil
}

// CachedProvider 在 TTL 內重用已取得的憑證
type CachedProvider struct {
	next Provider
	ttl  time.Duration
	now  func() time.Time

	mu        sync.Mutex
	value     string
	expiresAt time.Time
}

// NewCachedProvider 包裝憑證來源
func NewCachedProvider(next Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, ttl: ttl, now: time.Now}
}

// Fetch 快取有效時直接回傳，失敗結果不快取
func (p *CachedProvider) Fetch(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.value != "" && p.now().Before(p.expiresAt) {
		return p.value, nil
	}

	value, err := p.next.Fetch(ctx)
	if err != nil {
		return "", err
	}

	p.value = value
	p.expiresAt = p.now().Add(p.ttl)
	common.LogDebug("憑證已更新", zap.String("masked", common.MaskSecret(value)))
	return value, nil
}

// New 依設定選擇憑證來源
func New(cfg *config.Config, db *gorm.DB) (Provider, error) {
	var provider Provider
	switch cfg.Secrets.Source {
	case SourceEnv, "":
		provider = NewEnvProvider(cfg.AI.APIKey)
	case SourceDatabase:
		if db == nil {
			return nil, fmt.Errorf("database secrets source requires a database connection")
		}
		provider = NewDBProvider(db)
	default:
		return nil, fmt.Errorf("unknown secrets source %q", cfg.Secrets.Source)
	}

	if cfg.Secrets.CacheTTL > 0 {
		provider = NewCachedProvider(provider, cfg.Secrets.CacheTTL)
	}
	return provider, nil
}
