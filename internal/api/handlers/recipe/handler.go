package recipe

import (
	"context"

	"fusion-recipes/internal/api/middleware"
	"fusion-recipes/internal/core/catalog"
	"fusion-recipes/internal/core/generation"
	recipeCore "fusion-recipes/internal/core/recipe"
	"fusion-recipes/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
)

// Generator 生成管線
type Generator interface {
	Generate(ctx context.Context, in generation.Input) (*generation.Result, error)
}

// Catalog 食譜目錄
type Catalog interface {
	List(ctx context.Context, f catalog.Filter) ([]recipeCore.Recipe, int64, error)
	Get(ctx context.Context, id string) (*recipeCore.Recipe, error)
	ToggleFavorite(ctx context.Context, id, creatorID string) (bool, error)
}

// Handler 食譜處理程序
type Handler struct {
	generator Generator
	catalog   Catalog
	debug     bool
}

// NewHandler 創建新的食譜處理程序
func NewHandler(generator Generator, catalog Catalog, debug bool) *Handler {
	return &Handler{
		generator: generator,
		catalog:   catalog,
		debug:     debug,
	}
}

// currentUser 取出已驗證的使用者，未驗證時直接回應 401
func currentUser(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		common.WriteError(c, common.ErrUnauthorized, false)
		return "", false
	}
	return userID, true
}

func requestID(c *gin.Context) string {
	return requestid.Get(c)
}
