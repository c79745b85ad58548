package recipe

import (
	"strings"

	"fusion-recipes/internal/pkg/common"
)

// Aggregate 將畫面選擇與個人檔案偏好整理成生成請求
//
// useProfilePrefs 為 true 且有個人檔案時，飲食標籤完全取自個人檔案，
// 忽略畫面上的臨時切換。
func Aggregate(sel Selections, profile *ProfilePreferences, useProfilePrefs bool) (GenerationRequest, error) {
	dishType := strings.TrimSpace(sel.DishType)
	if dishType == "" {
		return GenerationRequest{}, &ValidationError{Kind: MissingDishType}
	}

	cuisines := common.NormalizeList(sel.Cuisines)
	switch {
	case len(cuisines) == 0:
		return GenerationRequest{}, &ValidationError{Kind: NoCuisineSelected}
	case len(cuisines) > MaxCuisines:
		return GenerationRequest{}, &ValidationError{Kind: TooManyCuisines}
	}

	var tags []string
	if useProfilePrefs && profile != nil {
		tags = concat(profile.Medical, profile.Lifestyle, profile.Religious)
	} else {
		tags = concat(sel.Medical, sel.Lifestyle, sel.Religious)
	}

	return GenerationRequest{
		DishType:          dishType,
		Cuisines:          cuisines,
		DietaryTags:       common.NormalizeList(tags),
		CustomIngredients: common.NormalizeList(concat(sel.PantryItems, sel.CustomIngredients)),
	}, nil
}

func concat(lists ...[]string) []string {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	out := make([]string, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
