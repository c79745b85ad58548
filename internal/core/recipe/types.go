package recipe

// MaxCuisines 一次請求最多可選的菜系數
const MaxCuisines = 2

// Difficulty 難度
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid 是否為合法難度
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Selections 使用者在畫面上的選擇
type Selections struct {
	DishType          string   `json:"dish_type"`
	Cuisines          []string `json:"cuisines"`
	Medical           []string `json:"medical_health_preferences,omitempty"`
	Lifestyle         []string `json:"lifestyle_dietary_preferences,omitempty"`
	Religious         []string `json:"religious_preferences,omitempty"`
	PantryItems       []string `json:"pantry_items,omitempty"`
	CustomIngredients []string `json:"custom_ingredients,omitempty"`
}

// ProfilePreferences 儲存於個人檔案的偏好
type ProfilePreferences struct {
	Medical     []string `json:"medical_health_preferences"`
	Lifestyle   []string `json:"lifestyle_dietary_preferences"`
	Religious   []string `json:"religious_preferences"`
	PantryItems []string `json:"pantry_items"`
}

// GenerationRequest 正規化後的生成請求
type GenerationRequest struct {
	DishType          string   `json:"dish_type"`
	Cuisines          []string `json:"cuisines"`
	DietaryTags       []string `json:"dietary_tags"`
	CustomIngredients []string `json:"custom_ingredients"`
}

// Recipe 食譜
type Recipe struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	FlavorText  string     `json:"flavor_text"`
	Ingredients []string   `json:"ingredients"`
	Steps       []string   `json:"steps"`
	CookingTime string     `json:"cooking_time"`
	PrepTimeMin int        `json:"prep_time_min"`
	Cuisines    []string   `json:"cuisines"`
	DietaryTags []string   `json:"dietary_tags"`
	DishType    string     `json:"dish_type"`
	Difficulty  Difficulty `json:"difficulty"`
	IsFavorite  bool       `json:"is_favorite"`
}
