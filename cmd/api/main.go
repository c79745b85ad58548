package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fusion-recipes/internal/api"
	"fusion-recipes/internal/api/handlers/health"
	"fusion-recipes/internal/core/ai"
	"fusion-recipes/internal/core/cache"
	"fusion-recipes/internal/core/catalog"
	"fusion-recipes/internal/core/generation"
	"fusion-recipes/internal/core/profile"
	"fusion-recipes/internal/core/secrets"
	"fusion-recipes/internal/infrastructure/config"
	"fusion-recipes/internal/infrastructure/database"
	"fusion-recipes/internal/infrastructure/observability"
	"fusion-recipes/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定（內含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("ai_mode", cfg.AI.Mode),
		zap.String("model", cfg.AI.Model),
		zap.String("secrets_source", cfg.Secrets.Source),
		zap.String("masked_key", common.MaskSecret(cfg.AI.APIKey)),
		zap.Bool("fallback_active", cfg.FallbackActive()),
	)

	shutdownTracing, err := observability.InitTracing(cfg, os.Stdout)
	if err != nil {
		common.LogFatal("Failed to initialize tracing", zap.Error(err))
	}

	// 資料庫
	db, err := database.Open(cfg.Database, cfg.App.Debug)
	if err != nil {
		common.LogFatal("Failed to connect database", zap.Error(err))
	}
	defer database.Close(db)

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, &catalog.RecipeRow{}, &profile.Profile{}, &secrets.Secret{}); err != nil {
			common.LogFatal("Failed to migrate database", zap.Error(err))
		}
	}

	// 憑證與模型客戶端
	secretProvider, err := secrets.New(cfg, db)
	if err != nil {
		common.LogFatal("Failed to initialize secrets provider", zap.Error(err))
	}
	client := ai.NewClient(cfg.AI, secretProvider)
	defer client.Close()

	// 初始化快取；關閉時回傳 nil
	responseCache, err := cache.New(cfg.Cache)
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}
	if responseCache != nil {
		defer responseCache.Close()
	}

	recipes := catalog.NewStore(db)
	pipeline := generation.NewService(
		generation.OptionsFromConfig(cfg),
		client,
		profile.NewStore(db),
		recipes,
		responseCache,
	)

	deps := api.Dependencies{
		Config:    cfg,
		Generator: pipeline,
		Catalog:   recipes,
		Checks: map[string]health.Checker{
			"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
		},
	}
	// direct 模式下伺服器持有憑證，可同時擔任中繼端點
	if cfg.AI.Mode == config.ModeDirect {
		deps.RelayGenerator = client
	}

	router, err := api.SetupRouter(deps)
	if err != nil {
		common.LogFatal("Failed to setup router", zap.Error(err))
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracing(ctx); err != nil {
		common.LogWarn("Failed to flush traces", zap.Error(err))
	}

	common.LogInfo("Server exited")
}

