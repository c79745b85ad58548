package recipe

import "fmt"

// ValidationKind 驗證錯誤種類
type ValidationKind string

const (
	MissingDishType   ValidationKind = "missingDishType"
	NoCuisineSelected ValidationKind = "noCuisineSelected"
	TooManyCuisines   ValidationKind = "tooManyCuisines"
)

// ValidationError 輸入錯誤，由呼叫端修正後重試
type ValidationError struct {
	Kind ValidationKind
}

func (e *ValidationError) Error() string {
	return "invalid generation request: " + string(e.Kind)
}

// Message 給使用者的提示
func (e *ValidationError) Message() string {
	switch e.Kind {
	case MissingDishType:
		return "Please select a dish type"
	case NoCuisineSelected:
		return "Please select at least one cuisine"
	case TooManyCuisines:
		return fmt.Sprintf("Please select at most %d cuisines", MaxCuisines)
	}
	return "Invalid recipe preferences"
}

// ParseKind 解析錯誤種類
type ParseKind string

const (
	MissingContent    ParseKind = "missingContent"
	MalformedPayload  ParseKind = "malformedPayload"
	MissingRecipeList ParseKind = "missingRecipeList"
	InvalidRecipes    ParseKind = "invalidRecipes"
)

// ParseError 模型輸出不符合約定
type ParseError struct {
	Kind ParseKind
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse recipe data: %s: %v", e.Kind, e.Err)
	}
	return "failed to parse recipe data: " + string(e.Kind)
}

func (e *ParseError) Unwrap() error { return e.Err }
