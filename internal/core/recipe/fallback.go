package recipe

import (
	"fmt"
	"strings"
	"time"
)

// cannedRecipe 內建的備用食譜
type cannedRecipe struct {
	Title       string
	FlavorText  string
	Ingredients []string
	Steps       []string
	CookingTime string
	PrepTimeMin int
	DishType    string
	Cuisines    []string
	DietaryTags []string
}

var cannedRecipes = []cannedRecipe{
	{
		Title:      "Thai-Inspired Mediterranean Quinoa Bowl",
		FlavorText: "A fusion of Mediterranean freshness and Thai aromatics",
		Ingredients: []string{
			"1 cup quinoa",
			"2 tablespoons olive oil",
			"1 can coconut milk",
			"2 cups mixed vegetables",
			"Fresh basil and mint",
			"Lemon juice",
			"Fish sauce (optional)",
		},
		Steps: []string{
			"Cook quinoa according to package instructions",
			"Sauté vegetables in olive oil",
			"Mix coconut milk with herbs and seasonings",
			"Combine all ingredients and serve warm",
		},
		CookingTime: "30 minutes",
		PrepTimeMin: 30,
		DishType:    "Dinner",
		Cuisines:    []string{"Thai", "Mediterranean"},
		DietaryTags: []string{"Vegetarian", "Gluten-Free"},
	},
	{
		Title:      "Mexican-Japanese Sushi Tacos",
		FlavorText: "Where Tokyo meets Mexico City in every bite",
		Ingredients: []string{
			"Sushi rice",
			"Nori sheets",
			"Fresh tuna",
			"Avocado",
			"Lime juice",
			"Wasabi",
			"Chipotle sauce",
		},
		Steps: []string{
			"Prepare sushi rice",
			"Cut nori sheets into taco shapes",
			"Prepare fish and toppings",
			"Assemble tacos with all ingredients",
		},
		CookingTime: "45 minutes",
		PrepTimeMin: 45,
		DishType:    "Dinner",
		Cuisines:    []string{"Japanese", "Mexican"},
		DietaryTags: []string{"Gluten-Free"},
	},
}

// FallbackSupplier 非正式環境下的備用食譜來源
type FallbackSupplier struct {
	now func() time.Time
}

// NewFallbackSupplier 創建備用食譜來源
func NewFallbackSupplier() *FallbackSupplier {
	return &FallbackSupplier{now: time.Now}
}

// Supply 回傳符合請求的內建食譜，沒有符合時回傳依請求組成的預設兩筆
func (f *FallbackSupplier) Supply(req GenerationRequest) []Recipe {
	var picked []cannedRecipe
	for _, c := range cannedRecipes {
		if c.matches(req) {
			picked = append(picked, c)
		}
	}
	if len(picked) == 0 {
		picked = defaultPair(req)
	}

	seen := make(map[string]struct{}, len(picked))
	recipes := make([]Recipe, 0, len(picked))
	for _, c := range picked {
		id := NewRecipeID(f.now())
		for {
			if _, dup := seen[id]; !dup {
				break
			}
			id = NewRecipeID(f.now())
		}
		seen[id] = struct{}{}

		recipes = append(recipes, Recipe{
			ID:          id,
			Title:       c.Title,
			FlavorText:  c.FlavorText,
			Ingredients: cloneList(c.Ingredients),
			Steps:       cloneList(c.Steps),
			CookingTime: c.CookingTime,
			PrepTimeMin: c.PrepTimeMin,
			Cuisines:    cloneList(req.Cuisines),
			DietaryTags: cloneList(req.DietaryTags),
			DishType:    req.DishType,
			Difficulty:  DifficultyMedium,
			IsFavorite:  false,
		})
	}
	return recipes
}

// matches 菜別相同（不分大小寫）、任一菜系相同、且包含所有飲食標籤
func (c cannedRecipe) matches(req GenerationRequest) bool {
	if !strings.EqualFold(c.DishType, req.DishType) {
		return false
	}

	cuisineHit := false
	for _, want := range req.Cuisines {
		if contains(c.Cuisines, want) {
			cuisineHit = true
			break
		}
	}
	if !cuisineHit {
		return false
	}

	for _, tag := range req.DietaryTags {
		if !contains(c.DietaryTags, tag) {
			return false
		}
	}
	return true
}

func defaultPair(req GenerationRequest) []cannedRecipe {
	name := strings.Join(req.Cuisines, "-") + " " + req.DishType
	return []cannedRecipe{
		{
			Title:       name,
			FlavorText:  "A delicious fusion recipe",
			Ingredients: []string{"Ingredient 1", "Ingredient 2", "Ingredient 3"},
			Steps:       []string{"Step 1", "Step 2", "Step 3"},
			CookingTime: "30 minutes",
			PrepTimeMin: 30,
		},
		{
			Title:       fmt.Sprintf("Alternative %s", name),
			FlavorText:  "Another delicious fusion recipe",
			Ingredients: []string{"Ingredient 1", "Ingredient 2", "Ingredient 3"},
			Steps:       []string{"Step 1", "Step 2", "Step 3"},
			CookingTime: "45 minutes",
			PrepTimeMin: 45,
		},
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
