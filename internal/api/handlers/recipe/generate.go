package recipe

import (
	"net/http"

	"fusion-recipes/internal/core/generation"
	recipeCore "fusion-recipes/internal/core/recipe"
	"fusion-recipes/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GenerateRequest 生成請求：畫面選擇加上是否改用個人檔案偏好
type GenerateRequest struct {
	recipeCore.Selections
	UseProfilePreferences bool `json:"use_profile_preferences"`
}

// GenerateResponse 生成結果
type GenerateResponse struct {
	Recipes     []recipeCore.Recipe `json:"recipes"`
	Unpersisted []string            `json:"unpersisted"`
	Fallback    bool                `json:"fallback"`
}

// HandleGenerate 依偏好生成融合料理食譜
func (h *Handler) HandleGenerate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	common.LogInfo("開始處理食譜生成請求",
		zap.String("request_id", requestID(c)),
		zap.String("user_id", userID),
	)

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID(c)),
		)
		common.WriteError(c, common.ErrInvalidRequest.Wrap(err), h.debug)
		return
	}

	result, err := h.generator.Generate(c.Request.Context(), generation.Input{
		CreatorID:       userID,
		Selections:      req.Selections,
		UseProfilePrefs: req.UseProfilePreferences,
	})
	if err != nil {
		// 只看呼叫端自己的 context，上游逾時屬於生成失敗
		if ctxErr := c.Request.Context().Err(); ctxErr != nil {
			common.LogWarn("請求已取消，丟棄生成結果",
				zap.String("request_id", requestID(c)),
				zap.Error(err),
			)
			common.WriteError(c, common.ErrGatewayTimeout.Wrap(ctxErr), h.debug)
			return
		}

		customErr := generation.HTTPError(err)
		if customErr.Status >= http.StatusInternalServerError {
			common.LogError("食譜生成失敗",
				zap.Error(err),
				zap.String("request_id", requestID(c)),
			)
		}
		common.WriteError(c, customErr, h.debug)
		return
	}

	unpersisted := result.Unpersisted
	if unpersisted == nil {
		unpersisted = []string{}
	}
	c.JSON(http.StatusOK, GenerateResponse{
		Recipes:     result.Recipes,
		Unpersisted: unpersisted,
		Fallback:    result.Fallback,
	})
}
