package recipe

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"fusion-recipes/internal/core/ai"
	"fusion-recipes/internal/pkg/common"

	"go.uber.org/zap"
)

// idSuffixLength 食譜 ID 隨機後綴長度
const idSuffixLength = 9

// modelRecipe 模型輸出的單筆食譜
type modelRecipe struct {
	Title       string      `json:"title"`
	FlavorText  string      `json:"flavor_text"`
	Ingredients []string    `json:"ingredients"`
	Steps       []string    `json:"steps"`
	CookingTime string      `json:"cooking_time"`
	PrepTimeMin json.Number `json:"prep_time_min"`
}

// Parser 解析並驗證模型輸出
type Parser struct {
	schema *OutputSchema
	now    func() time.Time
}

// NewParser 創建新的解析器
func NewParser() *Parser {
	return &Parser{
		schema: RecipeSchema,
		now:    time.Now,
	}
}

// Content 從 chat completions 信封取出訊息內容
func Content(raw *ai.RawResponse) (string, error) {
	if raw == nil || len(raw.Body) == 0 {
		return "", &ParseError{Kind: MissingContent}
	}

	var envelope ai.ChatResponse
	if err := json.Unmarshal(raw.Body, &envelope); err != nil {
		return "", &ParseError{Kind: MissingContent, Err: err}
	}
	if len(envelope.Choices) == 0 {
		return "", &ParseError{Kind: MissingContent, Err: fmt.Errorf("no choices in response")}
	}

	content := strings.TrimSpace(envelope.Choices[0].Message.Content)
	if content == "" {
		return "", &ParseError{Kind: MissingContent, Err: fmt.Errorf("empty message content")}
	}
	return content, nil
}

// Parse 解析上游原始回應
func (p *Parser) Parse(raw *ai.RawResponse, req GenerationRequest) ([]Recipe, error) {
	content, err := Content(raw)
	if err != nil {
		return nil, err
	}
	return p.ParseContent(content, req)
}

// ParseContent 解析訊息內容；格式錯誤的單筆食譜會被丟棄，全部丟棄時回傳 invalidRecipes
func (p *Parser) ParseContent(content string, req GenerationRequest) ([]Recipe, error) {
	text := common.StripCodeFence(content)
	if text == "" {
		return nil, &ParseError{Kind: MissingContent}
	}

	var payload json.RawMessage
	if err := common.ParseJSON(text, &payload); err != nil {
		return nil, &ParseError{Kind: MalformedPayload, Err: err}
	}

	entries, err := recipeEntries(payload)
	if err != nil {
		return nil, err
	}

	recipes := make([]Recipe, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for i, entry := range entries {
		if err := p.schema.ValidateEntry(entry); err != nil {
			common.LogWarn("丟棄格式錯誤的食譜",
				zap.String("stage", "parse"),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}

		var m modelRecipe
		if err := json.Unmarshal(entry, &m); err != nil {
			common.LogWarn("丟棄格式錯誤的食譜",
				zap.String("stage", "parse"),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}

		prep, err := prepMinutes(m.PrepTimeMin)
		if err != nil {
			common.LogWarn("丟棄格式錯誤的食譜",
				zap.String("stage", "parse"),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}

		recipes = append(recipes, Recipe{
			ID:          p.uniqueID(seen),
			Title:       m.Title,
			FlavorText:  m.FlavorText,
			Ingredients: m.Ingredients,
			Steps:       m.Steps,
			CookingTime: m.CookingTime,
			PrepTimeMin: prep,
			Cuisines:    cloneList(req.Cuisines),
			DietaryTags: cloneList(req.DietaryTags),
			DishType:    req.DishType,
			Difficulty:  DifficultyMedium,
			IsFavorite:  false,
		})
	}

	if len(recipes) == 0 {
		return nil, &ParseError{
			Kind: InvalidRecipes,
			Err:  fmt.Errorf("all %d recipe entries failed validation", len(entries)),
		}
	}

	return recipes, nil
}

// prepMinutes 轉為 0 到 MaxPrepTimeMin 之間的整數，接受 30.0 這類整數值的浮點寫法
func prepMinutes(n json.Number) (int, error) {
	v, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil || f != math.Trunc(f) || f < 0 || f > MaxPrepTimeMin {
			return 0, fmt.Errorf("prep_time_min out of range: %s", n)
		}
		v = int64(f)
	}
	if v < 0 || v > MaxPrepTimeMin {
		return 0, fmt.Errorf("prep_time_min out of range: %s", n)
	}
	return int(v), nil
}

// recipeEntries 取出頂層食譜陣列
func recipeEntries(payload json.RawMessage) ([]json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(payload, &top); err != nil {
		return nil, &ParseError{Kind: MissingRecipeList, Err: fmt.Errorf("payload is not an object")}
	}

	list, ok := top[RecipeListKey]
	if !ok {
		return nil, &ParseError{Kind: MissingRecipeList, Err: fmt.Errorf("missing %q field", RecipeListKey)}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(list, &entries); err != nil {
		return nil, &ParseError{Kind: MissingRecipeList, Err: fmt.Errorf("%q is not an array", RecipeListKey)}
	}
	if len(entries) == 0 {
		return nil, &ParseError{Kind: MissingRecipeList, Err: fmt.Errorf("%q is empty", RecipeListKey)}
	}
	return entries, nil
}

// uniqueID 產生批次內不重複的食譜 ID
func (p *Parser) uniqueID(seen map[string]struct{}) string {
	for {
		id := NewRecipeID(p.now())
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			return id
		}
	}
}

// NewRecipeID recipe-<毫秒時間戳>-<9 位隨機英數>
func NewRecipeID(t time.Time) string {
	return "recipe-" + strconv.FormatInt(t.UnixMilli(), 10) + "-" + common.RandomAlphanumeric(idSuffixLength)
}

func cloneList(items []string) []string {
	if items == nil {
		return []string{}
	}
	out := make([]string, len(items))
	copy(out, items)
	return out
}
