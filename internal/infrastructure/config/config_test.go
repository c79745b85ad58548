package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDevelopment)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ModeDirect, cfg.AI.Mode)
	assert.Equal(t, "deepseek-chat", cfg.AI.Model)
	assert.Equal(t, 2000, cfg.AI.MaxTokens)
	assert.Equal(t, 0.7, cfg.AI.Temperature)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 4, cfg.Generation.PersistWorkers)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.False(t, cfg.App.IsProduction())
	assert.True(t, cfg.FallbackActive())
}

func TestLoadConfigEnvBindings(t *testing.T) {
	t.Setenv("APP_ENV", EnvDevelopment)
	t.Setenv("DEEPSEEK_API_KEY", "sk-from-env")
	t.Setenv("AI_MODE", ModeRelay)
	t.Setenv("RELAY_URL", "https://example.supabase.co/functions/v1/generate-recipe")
	t.Setenv("FALLBACK_ENABLED", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sk-from-env", cfg.AI.APIKey)
	assert.Equal(t, ModeRelay, cfg.AI.Mode)
	assert.Equal(t, "https://example.supabase.co/functions/v1/generate-recipe", cfg.AI.RelayURL)
	assert.False(t, cfg.FallbackActive())
}

func TestLoadConfigUnsetEnvIsProduction(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("AUTH_JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.App.IsProduction())
	assert.False(t, cfg.App.Debug)
	assert.False(t, cfg.FallbackActive())
}

func TestLoadConfigProductionRequiresAuthSecret(t *testing.T) {
	t.Setenv("APP_ENV", EnvProduction)

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret")

	t.Setenv("AUTH_JWT_SECRET", "secret")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.App.IsProduction())
	assert.False(t, cfg.FallbackActive())
}

func validConfig() *Config {
	return &Config{
		Server:     ServerConfig{Port: 8080},
		AI:         AIConfig{Mode: ModeDirect, BaseURL: "https://api.deepseek.com/v1", MaxTokens: 2000, Timeout: time.Second},
		Secrets:    SecretsConfig{Source: "env"},
		Database:   DatabaseConfig{Driver: "sqlite"},
		Generation: GenerationConfig{PersistWorkers: 1},
	}
}

func TestValidateConfig(t *testing.T) {
	require.NoError(t, validateConfig(validConfig()))

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no port", func(c *Config) { c.Server.Port = 0 }},
		{"unknown mode", func(c *Config) { c.AI.Mode = "grpc" }},
		{"relay without url", func(c *Config) { c.AI.Mode = ModeRelay }},
		{"direct without url", func(c *Config) { c.AI.BaseURL = "" }},
		{"zero timeout", func(c *Config) { c.AI.Timeout = 0 }},
		{"bad secrets source", func(c *Config) { c.Secrets.Source = "vault" }},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"bad cache backend", func(c *Config) {
			c.Cache = CacheConfig{Enabled: true, Backend: "memcached", TTL: time.Minute}
		}},
		{"redis without addr", func(c *Config) {
			c.Cache = CacheConfig{Enabled: true, Backend: "redis", TTL: time.Minute}
		}},
		{"bad rate limit", func(c *Config) { c.RateLimit = RateLimitConfig{Enabled: true} }},
		{"no persist workers", func(c *Config) { c.Generation.PersistWorkers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, validateConfig(cfg))
		})
	}
}

func TestFallbackActiveOnlyForDevelopment(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"development", true},
		{"Development", true},
		{" test ", true},
		{"production", false},
		{"Production ", false},
		{"prod", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		cfg := &Config{App: AppConfig{Env: tt.env}, Fallback: FallbackConfig{Enabled: true}}
		assert.Equal(t, tt.want, cfg.FallbackActive(), "env %q", tt.env)
		assert.Equal(t, !tt.want, cfg.App.IsProduction(), "env %q", tt.env)
	}

	cfg := &Config{App: AppConfig{Env: EnvDevelopment}}
	assert.False(t, cfg.FallbackActive())
}
