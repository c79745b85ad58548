package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaVersion 模型輸出約定版本，提示詞與解析器共用
const SchemaVersion = "v1"

// RecipeListKey 模型輸出的頂層陣列欄位
const RecipeListKey = "recipes"

// MaxPrepTimeMin 準備時間上限（一週）
const MaxPrepTimeMin = 7 * 24 * 60

// FieldType 欄位型別
type FieldType string

const (
	TypeString      FieldType = "string"
	TypeStringArray FieldType = "array of strings"
	TypeInteger     FieldType = "integer"
)

// SchemaField 單一欄位定義
type SchemaField struct {
	Name     string
	Type     FieldType
	Example  interface{}
	Required bool
	// NonEmpty 字串不可為空、陣列至少一項
	NonEmpty bool
	// Max 整數上限，0 表示不限
	Max int
}

// OutputSchema 模型輸出約定
type OutputSchema struct {
	Version string
	Fields  []SchemaField

	once     sync.Once
	compiled *gojsonschema.Schema
	err      error
}

// RecipeSchema 唯一的食譜輸出定義
var RecipeSchema = &OutputSchema{
	Version: SchemaVersion,
	Fields: []SchemaField{
		{Name: "title", Type: TypeString, Required: true, NonEmpty: true,
			Example: "A creative and descriptive name that reflects the fusion of cuisines"},
		{Name: "flavor_text", Type: TypeString, Required: true, NonEmpty: true,
			Example: "A compelling description (2-3 sentences) highlighting the unique flavor combinations, textures, and cultural fusion"},
		{Name: "ingredients", Type: TypeStringArray, Required: true, NonEmpty: true,
			Example: []string{
				"Precise ingredient with exact measurement (e.g., '2 tablespoons soy sauce')",
				"Each ingredient should include quantity and any specific notes",
			}},
		{Name: "steps", Type: TypeStringArray, Required: true, NonEmpty: true,
			Example: []string{
				"Detailed step with timing and specific techniques (e.g., 'Sauté onions over medium heat for 5 minutes until translucent')",
				"Each step should be clear and actionable",
			}},
		{Name: "cooking_time", Type: TypeString, Required: true, NonEmpty: true,
			Example: "Total time in format: 1 hour 30 minutes"},
		{Name: "prep_time_min", Type: TypeInteger, Required: true, Max: MaxPrepTimeMin,
			Example: 45},
		{Name: "cuisines", Type: TypeStringArray,
			Example: []string{"Each cuisine exactly as requested"}},
		{Name: "dietary_tags", Type: TypeStringArray,
			Example: []string{"Each dietary requirement exactly as requested"}},
		{Name: "dish_type", Type: TypeString,
			Example: "The dish type exactly as requested"},
	},
}

// PromptContract 渲染給模型的輸出格式說明
func (s *OutputSchema) PromptContract() string {
	var sb strings.Builder
	sb.WriteString("{\n")
	sb.WriteString(fmt.Sprintf("  %q: [{\n", RecipeListKey))
	for i, f := range s.Fields {
		sb.WriteString(fmt.Sprintf("    %q: %s", f.Name, encodeExample(f.Example)))
		if i < len(s.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("  }]\n")
	sb.WriteString("}\n")

	types := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		types = append(types, fmt.Sprintf("%s (%s)", f.Name, f.Type))
	}
	sb.WriteString("Field types: ")
	sb.WriteString(strings.Join(types, "; "))
	sb.WriteString(".\nRespond with the JSON object only.")
	return sb.String()
}

// encodeExample 以不跳脫 HTML 的方式序列化範例
func encodeExample(v interface{}) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "null"
	}
	return strings.TrimSpace(buf.String())
}

// EntryJSONSchema 單筆食譜的 JSON Schema
func (s *OutputSchema) EntryJSONSchema() map[string]interface{} {
	properties := make(map[string]interface{}, len(s.Fields))
	required := make([]interface{}, 0, len(s.Fields))

	for _, f := range s.Fields {
		prop := map[string]interface{}{}
		switch f.Type {
		case TypeString:
			prop["type"] = "string"
			if f.NonEmpty {
				prop["minLength"] = 1
			}
		case TypeStringArray:
			prop["type"] = "array"
			prop["items"] = map[string]interface{}{"type": "string"}
			if f.NonEmpty {
				prop["minItems"] = 1
			}
		case TypeInteger:
			prop["type"] = "integer"
			prop["minimum"] = 0
			if f.Max > 0 {
				prop["maximum"] = f.Max
			}
		}
		properties[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}

	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// ValidateEntry 以共用定義驗證單筆食譜
func (s *OutputSchema) ValidateEntry(entry json.RawMessage) error {
	s.once.Do(func() {
		s.compiled, s.err = gojsonschema.NewSchema(gojsonschema.NewGoLoader(s.EntryJSONSchema()))
	})
	if s.err != nil {
		return fmt.Errorf("schema compile error: %w", s.err)
	}

	result, err := s.compiled.Validate(gojsonschema.NewBytesLoader(entry))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("recipe validation failed: %v", errs)
	}
	return nil
}
