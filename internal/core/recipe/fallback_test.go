package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackMatchesCatalog(t *testing.T) {
	req := GenerationRequest{
		DishType:    "dinner",
		Cuisines:    []string{"Thai", "Mediterranean"},
		DietaryTags: []string{"Vegetarian"},
	}

	recipes := NewFallbackSupplier().Supply(req)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Thai-Inspired Mediterranean Quinoa Bowl", recipes[0].Title)
	assert.Equal(t, req.Cuisines, recipes[0].Cuisines)
	assert.Equal(t, req.DietaryTags, recipes[0].DietaryTags)
	assert.Equal(t, "dinner", recipes[0].DishType)
}

func TestFallbackGlutenFreeMatchesBoth(t *testing.T) {
	req := GenerationRequest{
		DishType:    "Dinner",
		Cuisines:    []string{"Thai", "Japanese"},
		DietaryTags: []string{"Gluten-Free"},
	}

	recipes := NewFallbackSupplier().Supply(req)
	require.Len(t, recipes, 2)
	assert.Equal(t, "Thai-Inspired Mediterranean Quinoa Bowl", recipes[0].Title)
	assert.Equal(t, "Mexican-Japanese Sushi Tacos", recipes[1].Title)
}

func TestFallbackDefaultPair(t *testing.T) {
	req := GenerationRequest{
		DishType: "Breakfast",
		Cuisines: []string{"Korean", "French"},
	}

	recipes := NewFallbackSupplier().Supply(req)
	require.Len(t, recipes, 2)
	assert.Equal(t, "Korean-French Breakfast", recipes[0].Title)
	assert.Equal(t, "Alternative Korean-French Breakfast", recipes[1].Title)
	assert.Equal(t, 30, recipes[0].PrepTimeMin)
	assert.Equal(t, 45, recipes[1].PrepTimeMin)
}

func TestFallbackRecipeShape(t *testing.T) {
	req := GenerationRequest{DishType: "Lunch", Cuisines: []string{"Italian"}}

	recipes := NewFallbackSupplier().Supply(req)
	require.NotEmpty(t, recipes)

	ids := map[string]struct{}{}
	for _, r := range recipes {
		assert.NotEmpty(t, r.ID)
		ids[r.ID] = struct{}{}
		assert.NotEmpty(t, r.Title)
		assert.NotEmpty(t, r.FlavorText)
		assert.NotEmpty(t, r.Ingredients)
		assert.NotEmpty(t, r.Steps)
		assert.Equal(t, DifficultyMedium, r.Difficulty)
		assert.False(t, r.IsFavorite)
		assert.Equal(t, []string{"Italian"}, r.Cuisines)
		assert.Equal(t, []string{}, r.DietaryTags)
	}
	assert.Len(t, ids, len(recipes))
}

func TestFallbackDoesNotShareCatalogSlices(t *testing.T) {
	req := GenerationRequest{DishType: "Dinner", Cuisines: []string{"Thai"}}

	first := NewFallbackSupplier().Supply(req)
	first[0].Ingredients[0] = "changed"

	second := NewFallbackSupplier().Supply(req)
	assert.Equal(t, "1 cup quinoa", second[0].Ingredients[0])
}
