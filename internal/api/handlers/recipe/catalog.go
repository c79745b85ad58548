package recipe

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"fusion-recipes/internal/core/catalog"
	recipeCore "fusion-recipes/internal/core/recipe"
	"fusion-recipes/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListResponse 列表結果
type ListResponse struct {
	Recipes []recipeCore.Recipe `json:"recipes"`
	Total   int64               `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
}

// FavoriteResponse 收藏切換結果
type FavoriteResponse struct {
	ID         string `json:"id"`
	IsFavorite bool   `json:"is_favorite"`
}

// HandleList 瀏覽所有食譜
func (h *Handler) HandleList(c *gin.Context) {
	h.list(c, catalog.Filter{})
}

// HandleMine 使用者建立的食譜
func (h *Handler) HandleMine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	h.list(c, catalog.Filter{CreatorID: userID})
}

// HandleFavorites 使用者收藏的食譜
func (h *Handler) HandleFavorites(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	h.list(c, catalog.Filter{CreatorID: userID, FavoritesOnly: true})
}

func (h *Handler) list(c *gin.Context, filter catalog.Filter) {
	if err := bindFilter(c, &filter); err != nil {
		common.WriteError(c, common.ErrInvalidRequest.WithMessage(err.Error()), false)
		return
	}

	recipes, total, err := h.catalog.List(c.Request.Context(), filter)
	if err != nil {
		common.LogError("讀取食譜列表失敗",
			zap.Error(err),
			zap.String("request_id", requestID(c)),
		)
		common.WriteError(c, common.ErrInternalError.Wrap(err), h.debug)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Recipes: recipes,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	})
}

// bindFilter 讀取查詢參數 dish_type, dietary, q, sort, limit, offset
func bindFilter(c *gin.Context, filter *catalog.Filter) error {
	filter.DishType = c.Query("dish_type")
	filter.Query = c.Query("q")

	if dietary := c.Query("dietary"); dietary != "" {
		for _, tag := range strings.Split(dietary, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filter.DietaryTags = append(filter.DietaryTags, tag)
			}
		}
	}

	switch sort := c.DefaultQuery("sort", catalog.SortNewest); sort {
	case catalog.SortNewest, catalog.SortQuick:
		filter.SortBy = sort
	default:
		return errors.New("sort must be newest or quick")
	}

	limit, err := queryInt(c, "limit", 20)
	if err != nil || limit <= 0 || limit > 100 {
		return errors.New("limit must be between 1 and 100")
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		return errors.New("offset must not be negative")
	}
	filter.Limit = limit
	filter.Offset = offset
	return nil
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// HandleGet 讀取單筆食譜
func (h *Handler) HandleGet(c *gin.Context) {
	r, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			common.WriteError(c, common.ErrNotFound.WithMessage("Recipe not found"), false)
			return
		}
		common.LogError("讀取食譜失敗",
			zap.Error(err),
			zap.String("recipe_id", c.Param("id")),
		)
		common.WriteError(c, common.ErrInternalError.Wrap(err), h.debug)
		return
	}
	c.JSON(http.StatusOK, r)
}

// HandleToggleFavorite 切換收藏
func (h *Handler) HandleToggleFavorite(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id := c.Param("id")
	favorite, err := h.catalog.ToggleFavorite(c.Request.Context(), id, userID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			common.WriteError(c, common.ErrNotFound.WithMessage("Recipe not found"), false)
			return
		}
		common.LogError("切換收藏失敗",
			zap.Error(err),
			zap.String("recipe_id", id),
			zap.String("user_id", userID),
		)
		common.WriteError(c, common.ErrInternalError.Wrap(err), h.debug)
		return
	}

	c.JSON(http.StatusOK, FavoriteResponse{ID: id, IsFavorite: favorite})
}
