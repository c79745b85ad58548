package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 生成模式
const (
	ModeDirect = "direct"
	ModeRelay  = "relay"
)

// 環境
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
	EnvTest        = "test"
)

// Config 應用配置
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	AI          AIConfig         `mapstructure:"ai"`
	Secrets     SecretsConfig    `mapstructure:"secrets"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Cache       CacheConfig      `mapstructure:"cache"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	Auth        AuthConfig       `mapstructure:"auth"`
	Fallback    FallbackConfig   `mapstructure:"fallback"`
	Tracing     TracingConfig    `mapstructure:"tracing"`
	Generation  GenerationConfig `mapstructure:"generation"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
	LogDir      string           `mapstructure:"log_dir"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// IsDevelopment 只有明確標示為 development 或 test 才是非正式環境
func (a AppConfig) IsDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(a.Env)) {
	case EnvDevelopment, EnvTest:
		return true
	}
	return false
}

// IsProduction 是否為正式環境；未設定或無法辨識的值一律視為正式環境
func (a AppConfig) IsProduction() bool {
	return !a.IsDevelopment()
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// AIConfig 模型端點配置
type AIConfig struct {
	Mode        string        `mapstructure:"mode"`
	BaseURL     string        `mapstructure:"base_url"`
	RelayURL    string        `mapstructure:"relay_url"`
	RelayToken  string        `mapstructure:"relay_token"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SecretsConfig 憑證來源設定
type SecretsConfig struct {
	Source   string        `mapstructure:"source"` // env | database
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// DatabaseConfig 資料庫設定
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres | sqlite
	DSN             string        `mapstructure:"dsn"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"` // memory | redis
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// AuthConfig 託管認證服務的 JWT 設定
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Audience  string `mapstructure:"audience"`
}

// FallbackConfig 備援食譜設定
type FallbackConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// TracingConfig 追蹤設定
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// GenerationConfig 管線設定
type GenerationConfig struct {
	PersistWorkers int `mapstructure:"persist_workers"`
}

// FallbackActive 明確標示為非正式環境且開啟備援時才回傳 true
func (c *Config) FallbackActive() bool {
	return c.Fallback.Enabled && c.App.IsDevelopment()
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 可選
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	bindings := map[string]string{
		"app.env":            "APP_ENV",
		"ai.mode":            "AI_MODE",
		"ai.base_url":        "DEEPSEEK_BASE_URL",
		"ai.api_key":         "DEEPSEEK_API_KEY",
		"ai.model":           "DEEPSEEK_MODEL",
		"ai.relay_url":       "RELAY_URL",
		"ai.relay_token":     "RELAY_TOKEN",
		"secrets.source":     "SECRETS_SOURCE",
		"database.driver":    "DATABASE_DRIVER",
		"database.dsn":       "DATABASE_URL",
		"cache.enabled":      "CACHE_ENABLED",
		"cache.backend":      "CACHE_BACKEND",
		"cache.redis_addr":   "REDIS_ADDR",
		"rate_limit.enabled": "RATE_LIMIT_ENABLED",
		"auth.jwt_secret":    "AUTH_JWT_SECRET",
		"fallback.enabled":   "FALLBACK_ENABLED",
		"tracing.enabled":    "OTEL_ENABLED",
		"dedup_window":       "DEDUP_WINDOW",
		"log_level":          "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// logger 尚未初始化，改用 fmt.Println
	fmt.Println("Loading configuration", "ai_mode:", v.GetString("ai.mode"), "model:", v.GetString("ai.model"), "env:", v.GetString("app.env"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", EnvProduction)
	v.SetDefault("app.debug", false)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "fusion-recipes")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// 模型設定
	v.SetDefault("ai.mode", ModeDirect)
	v.SetDefault("ai.base_url", "https://api.deepseek.com/v1")
	v.SetDefault("ai.model", "deepseek-chat")
	v.SetDefault("ai.max_tokens", 2000)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.timeout", "30s")

	// 憑證
	v.SetDefault("secrets.source", "env")
	v.SetDefault("secrets.cache_ttl", "5m")

	// 資料庫
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "fusion-recipes.db")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime", "5m")

	// 快取設定
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("fallback.enabled", true)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.sample_ratio", 0.1)
	v.SetDefault("generation.persist_workers", 4)

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	switch config.AI.Mode {
	case ModeDirect:
		if config.AI.BaseURL == "" {
			return fmt.Errorf("ai.base_url is required in direct mode")
		}
	case ModeRelay:
		if config.AI.RelayURL == "" {
			return fmt.Errorf("ai.relay_url is required in relay mode")
		}
	default:
		return fmt.Errorf("invalid ai mode %q", config.AI.Mode)
	}
	if config.AI.MaxTokens <= 0 {
		return fmt.Errorf("invalid ai max tokens")
	}
	if config.AI.Timeout <= 0 {
		return fmt.Errorf("invalid ai timeout")
	}

	switch config.Secrets.Source {
	case "env", "database":
	default:
		return fmt.Errorf("invalid secrets source %q", config.Secrets.Source)
	}

	switch config.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid database driver %q", config.Database.Driver)
	}

	if config.Cache.Enabled {
		switch config.Cache.Backend {
		case "memory":
			if config.Cache.MaxSize <= 0 {
				return fmt.Errorf("invalid cache max size")
			}
			if config.Cache.CleanupInterval <= 0 {
				return fmt.Errorf("invalid cache cleanup interval")
			}
		case "redis":
			if config.Cache.RedisAddr == "" {
				return fmt.Errorf("cache.redis_addr is required for redis backend")
			}
		default:
			return fmt.Errorf("invalid cache backend %q", config.Cache.Backend)
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	if config.App.IsProduction() && config.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required in production")
	}

	if config.Generation.PersistWorkers <= 0 {
		return fmt.Errorf("invalid persist workers")
	}

	return nil
}
