package recipe

import (
	"errors"
	"fmt"
	"net/http"

	"fusion-recipes/internal/core/ai"
	recipeCore "fusion-recipes/internal/core/recipe"
	"fusion-recipes/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RelayHandler 中繼函式：只接收偏好，在伺服器端組裝提示詞並呼叫模型
type RelayHandler struct {
	generator ai.Generator
	parser    *recipeCore.Parser
}

// NewRelayHandler 創建中繼處理程序，generator 必須為 direct 模式
func NewRelayHandler(generator ai.Generator) *RelayHandler {
	return &RelayHandler{
		generator: generator,
		parser:    recipeCore.NewParser(),
	}
}

// HandleGenerateRecipe 回傳食譜陣列，失敗時回傳 {"error": "..."}
func (h *RelayHandler) HandleGenerateRecipe(c *gin.Context) {
	var body ai.RelayRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ai.RelayError{Error: "Invalid request format"})
		return
	}

	req, err := recipeCore.Aggregate(recipeCore.Selections{
		DishType:  body.DishType,
		Cuisines:  body.Cuisines,
		Lifestyle: body.DietaryTags,
	}, nil, false)
	if err != nil {
		var vErr *recipeCore.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, ai.RelayError{Error: vErr.Message()})
			return
		}
		c.JSON(http.StatusBadRequest, ai.RelayError{Error: err.Error()})
		return
	}

	raw, err := h.generator.Generate(c.Request.Context(), recipeCore.BuildPrompt(req))
	if err != nil {
		common.LogError("中繼呼叫模型失敗",
			zap.String("stage", "generate"),
			zap.String("request_id", requestID(c)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, ai.RelayError{Error: relayMessage(err)})
		return
	}

	recipes, err := h.parser.Parse(raw, req)
	if err != nil {
		common.LogError("中繼解析模型輸出失敗",
			zap.String("stage", "parse"),
			zap.String("request_id", requestID(c)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, ai.RelayError{Error: relayMessage(err)})
		return
	}

	c.JSON(http.StatusOK, recipes)
}

func relayMessage(err error) string {
	var (
		authErr     *ai.AuthConfigError
		upstreamErr *ai.UpstreamError
		parseErr    *recipeCore.ParseError
	)
	switch {
	case errors.As(err, &authErr):
		return "Failed to fetch DeepSeek API key"
	case errors.As(err, &upstreamErr):
		return fmt.Sprintf("DeepSeek API error: %d", upstreamErr.StatusCode)
	case errors.As(err, &parseErr):
		return "Failed to parse recipe data"
	}
	return "Failed to generate recipes. Please try again."
}
