package catalog

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"fusion-recipes/internal/core/recipe"
	"fusion-recipes/internal/infrastructure/database"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// IngredientsDoc ingredients 欄位格式 {"items": [...]}
type IngredientsDoc struct {
	Items []string `json:"items"`
}

// Value implements the driver.Valuer interface
func (d IngredientsDoc) Value() (driver.Value, error) {
	if d.Items == nil {
		d.Items = []string{}
	}
	data, err := json.Marshal(d)
	return string(data), err
}

// Scan implements the sql.Scanner interface
func (d *IngredientsDoc) Scan(value interface{}) error {
	*d = IngredientsDoc{}
	if value == nil {
		return nil
	}
	return database.ScanJSON(value, d)
}

// GormDBDataType 依驅動決定欄位型別
func (IngredientsDoc) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return database.JSONDataType(db)
}

// InstructionsDoc instructions 欄位格式 {"cooking": [...]}
type InstructionsDoc struct {
	Cooking []string `json:"cooking"`
}

// Value implements the driver.Valuer interface
func (d InstructionsDoc) Value() (driver.Value, error) {
	if d.Cooking == nil {
		d.Cooking = []string{}
	}
	data, err := json.Marshal(d)
	return string(data), err
}

// Scan implements the sql.Scanner interface
func (d *InstructionsDoc) Scan(value interface{}) error {
	*d = InstructionsDoc{}
	if value == nil {
		return nil
	}
	return database.ScanJSON(value, d)
}

// GormDBDataType 依驅動決定欄位型別
func (InstructionsDoc) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return database.JSONDataType(db)
}

// RecipeRow recipes 資料表
type RecipeRow struct {
	ID           string              `gorm:"primaryKey;size:64"`
	CreatorID    string              `gorm:"size:64;index"`
	Title        string              `gorm:"size:255;not null"`
	Description  string              `gorm:"type:text"`
	Cuisines     database.StringList `gorm:"column:cuisines"`
	Ingredients  IngredientsDoc      `gorm:"column:ingredients"`
	Instructions InstructionsDoc     `gorm:"column:instructions"`
	DietaryTags  database.StringList `gorm:"column:dietary_tags"`
	CookingTime  string              `gorm:"size:64"`
	PrepTimeMin  int
	DishType     string `gorm:"size:64;index"`
	Difficulty   string `gorm:"size:16"`
	IsFavorite   bool   `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName 資料表名稱
func (RecipeRow) TableName() string { return "recipes" }

// RowFromRecipe 轉為資料列；is_favorite 一律寫入 false
func RowFromRecipe(r recipe.Recipe, creatorID string) RecipeRow {
	difficulty := r.Difficulty
	if !difficulty.Valid() {
		difficulty = recipe.DifficultyMedium
	}
	return RecipeRow{
		ID:           r.ID,
		CreatorID:    creatorID,
		Title:        r.Title,
		Description:  r.FlavorText,
		Cuisines:     database.StringList(r.Cuisines),
		Ingredients:  IngredientsDoc{Items: r.Ingredients},
		Instructions: InstructionsDoc{Cooking: r.Steps},
		DietaryTags:  database.StringList(r.DietaryTags),
		CookingTime:  r.CookingTime,
		PrepTimeMin:  r.PrepTimeMin,
		DishType:     r.DishType,
		Difficulty:   string(difficulty),
		IsFavorite:   false,
	}
}

// RowToRecipe 從資料列還原食譜
func RowToRecipe(row RecipeRow) recipe.Recipe {
	return recipe.Recipe{
		ID:          row.ID,
		Title:       row.Title,
		FlavorText:  row.Description,
		Ingredients: nonNil(row.Ingredients.Items),
		Steps:       nonNil(row.Instructions.Cooking),
		CookingTime: row.CookingTime,
		PrepTimeMin: row.PrepTimeMin,
		Cuisines:    nonNil(row.Cuisines),
		DietaryTags: nonNil(row.DietaryTags),
		DishType:    row.DishType,
		Difficulty:  recipe.Difficulty(row.Difficulty),
		IsFavorite:  row.IsFavorite,
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
