package recipe

import (
	"fmt"
	"strings"

	"fusion-recipes/internal/core/ai"
	"fusion-recipes/internal/pkg/common"
)

// SystemPrompt 模型角色設定
const SystemPrompt = "You are a professional chef specializing in fusion cuisine. Generate detailed recipes in the exact format requested."

const (
	closingClause  = "Ensure the recipe is practical for home cooks while maintaining authenticity. Include precise measurements and clear instructions."
	contractIntro  = "Return the response in this exact JSON format:"
	ingredientHint = "Incorporate these ingredients where they fit: %s."
)

// BuildPrompt 將生成請求渲染為提示詞，相同請求永遠得到相同輸出
func BuildPrompt(req GenerationRequest) ai.Prompt {
	var sb strings.Builder

	sb.WriteString(cuisineClause(req.DishType, req.Cuisines))

	if len(req.DietaryTags) > 0 {
		sb.WriteString(fmt.Sprintf(
			"\nThe recipe must strictly adhere to these dietary requirements: %s. Ensure all ingredients and preparation methods comply with these restrictions.",
			common.JoinList(req.DietaryTags),
		))
	}

	if len(req.CustomIngredients) > 0 {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf(ingredientHint, common.JoinList(req.CustomIngredients)))
	}

	sb.WriteString("\n\n")
	sb.WriteString(closingClause)
	sb.WriteString("\n\n")
	sb.WriteString(contractIntro)
	sb.WriteString("\n")
	sb.WriteString(RecipeSchema.PromptContract())

	return ai.Prompt{
		System: SystemPrompt,
		User:   sb.String(),
		Request: ai.RelayRequest{
			DishType:    req.DishType,
			Cuisines:    req.Cuisines,
			DietaryTags: req.DietaryTags,
		},
	}
}

// cuisineClause 單一菜系強調道地，兩種菜系依選擇順序以 "and" 融合
func cuisineClause(dishType string, cuisines []string) string {
	if len(cuisines) == 1 {
		return fmt.Sprintf("Create an authentic %s recipe that truly captures the essence of %s cuisine.", dishType, cuisines[0])
	}
	return fmt.Sprintf(
		"Create an innovative %s recipe that harmoniously fuses %s cuisines, combining traditional elements from each culinary tradition.",
		dishType, strings.Join(cuisines, " and "),
	)
}
