package api

import (
	"fmt"
	"time"

	"fusion-recipes/internal/api/handlers/health"
	recipeHandler "fusion-recipes/internal/api/handlers/recipe"
	"fusion-recipes/internal/api/middleware"
	"fusion-recipes/internal/core/ai"
	"fusion-recipes/internal/infrastructure/config"
	"fusion-recipes/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// Dependencies 路由所需的服務
type Dependencies struct {
	Config    *config.Config
	Generator recipeHandler.Generator
	Catalog   recipeHandler.Catalog

	// RelayGenerator 持有憑證的 direct 客戶端，nil 時不掛載中繼端點
	RelayGenerator ai.Generator

	Checks map[string]health.Checker
}

// SetupRouter 設置路由
func SetupRouter(deps Dependencies) (*gin.Engine, error) {
	cfg := deps.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Generator == nil || deps.Catalog == nil {
		return nil, fmt.Errorf("generator and catalog are required")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.String("ai_mode", cfg.AI.Mode),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(common.GenerateUUID)))
	router.Use(middleware.RequestContext())
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", middleware.HeaderUserID},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	router.Use(otelgin.Middleware(cfg.App.Name))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg.App.Version, cfg.AI.Mode, deps.Checks)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}
	dedup := middleware.NewDeduplicator(cfg.DedupWindow)
	debug := cfg.App.Debug && !cfg.App.IsProduction()

	// API 路由組
	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.Auth, cfg.App.IsProduction()))
	if limiter != nil {
		api.Use(limiter.Middleware())
	}
	{
		handler := recipeHandler.NewHandler(deps.Generator, deps.Catalog, debug)

		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.POST("/generate", dedup.Middleware(), handler.HandleGenerate)
			recipeGroup.GET("", handler.HandleList)
			recipeGroup.GET("/mine", handler.HandleMine)
			recipeGroup.GET("/favorites", handler.HandleFavorites)
			recipeGroup.GET("/:id", handler.HandleGet)
			recipeGroup.POST("/:id/favorite", handler.HandleToggleFavorite)
		}
	}

	// 中繼函式路由
	if deps.RelayGenerator != nil {
		functions := router.Group("/functions/v1")
		functions.Use(middleware.StaticToken(cfg.AI.RelayToken))
		if limiter != nil {
			functions.Use(limiter.Middleware())
		}
		functions.POST("/generate-recipe", recipeHandler.NewRelayHandler(deps.RelayGenerator).HandleGenerateRecipe)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit_enabled", limiter != nil),
		zap.Bool("relay_endpoint", deps.RelayGenerator != nil),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router, nil
}
