package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"fusion-recipes/internal/core/ai"
	"fusion-recipes/internal/core/cache"
	"fusion-recipes/internal/core/recipe"
	"fusion-recipes/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	content string
	err     error
	block   chan struct{}
}

func (g *fakeGenerator) Mode() string { return config.ModeDirect }

func (g *fakeGenerator) Generate(ctx context.Context, prompt ai.Prompt) (*ai.RawResponse, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	if g.block != nil {
		<-g.block
	}
	if g.err != nil {
		return nil, g.err
	}
	body, _ := json.Marshal(ai.ChatResponse{
		Choices: []ai.Choice{{Message: ai.Message{Role: "assistant", Content: g.content}}},
	})
	return &ai.RawResponse{Body: body, Mode: config.ModeDirect}, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeStore struct {
	mu       sync.Mutex
	saved    map[string]string
	failFor  string
	persists int
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: map[string]string{}}
}

func (s *fakeStore) Persist(ctx context.Context, r recipe.Recipe, creatorID string) error {
	if r.Title == s.failFor {
		return errors.New("insert rejected")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persists++
	s.saved[r.ID] = creatorID
	return nil
}

func (s *fakeStore) persistCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persists
}

type fakeProfiles struct {
	prefs *recipe.ProfilePreferences
	err   error
}

func (p fakeProfiles) Get(context.Context, string) (*recipe.ProfilePreferences, error) {
	return p.prefs, p.err
}

func recipesContent(titles ...string) string {
	entries := make([]string, len(titles))
	for i, title := range titles {
		entries[i] = fmt.Sprintf(`{"title":%q,"flavor_text":"Tasty","ingredients":["1 cup rice"],"steps":["Cook"],"cooking_time":"20 minutes","prep_time_min":20}`, title)
	}
	return `{"recipes":[` + strings.Join(entries, ",") + `]}`
}

func dinnerInput() Input {
	return Input{
		CreatorID: "user-1",
		Selections: recipe.Selections{
			DishType:  "Dinner",
			Cuisines:  []string{"Thai", "Mediterranean"},
			Lifestyle: []string{"Vegetarian", "Gluten-Free"},
		},
	}
}

func TestGenerateSuccess(t *testing.T) {
	gen := &fakeGenerator{content: recipesContent("First", "Second")}
	store := newFakeStore()
	svc := NewService(Options{}, gen, nil, store, nil)

	result, err := svc.Generate(context.Background(), dinnerInput())
	require.NoError(t, err)
	require.Len(t, result.Recipes, 2)
	assert.False(t, result.Fallback)
	assert.Empty(t, result.Unpersisted)
	assert.Len(t, store.saved, 2)

	for _, r := range result.Recipes {
		assert.Equal(t, "user-1", store.saved[r.ID])
		assert.Equal(t, []string{"Vegetarian", "Gluten-Free"}, r.DietaryTags)
	}
}

func TestGenerateValidationStopsBeforeNetwork(t *testing.T) {
	gen := &fakeGenerator{content: recipesContent("Never")}
	svc := NewService(Options{FallbackActive: true}, gen, nil, newFakeStore(), nil)

	in := dinnerInput()
	in.Selections.Cuisines = nil

	_, err := svc.Generate(context.Background(), in)

	var vErr *recipe.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, recipe.NoCuisineSelected, vErr.Kind)
	assert.Equal(t, 0, gen.callCount())
}

func TestGenerateMalformedProduction(t *testing.T) {
	gen := &fakeGenerator{content: "Sure! Here's a lovely recipe for you."}
	store := newFakeStore()
	svc := NewService(Options{FallbackActive: false}, gen, nil, store, nil)

	_, err := svc.Generate(context.Background(), dinnerInput())

	var pErr *recipe.ParseError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, recipe.MalformedPayload, pErr.Kind)
	assert.Equal(t, "Failed to generate recipes. Please try again.", UserMessage(err))
	assert.Empty(t, store.saved)
}

func TestGenerateMalformedFallback(t *testing.T) {
	gen := &fakeGenerator{content: "not json at all"}
	store := newFakeStore()
	svc := NewService(Options{FallbackActive: true}, gen, nil, store, nil)

	result, err := svc.Generate(context.Background(), dinnerInput())
	require.NoError(t, err)
	assert.True(t, result.Fallback)
	require.NotEmpty(t, result.Recipes)
	assert.Equal(t, "Thai-Inspired Mediterranean Quinoa Bowl", result.Recipes[0].Title)
	assert.Empty(t, store.saved)
}

func TestGenerateUpstreamFailureFallback(t *testing.T) {
	gen := &fakeGenerator{err: &ai.UpstreamError{StatusCode: 503, Body: "busy"}}
	svc := NewService(Options{FallbackActive: true}, gen, nil, newFakeStore(), nil)

	result, err := svc.Generate(context.Background(), dinnerInput())
	require.NoError(t, err)
	assert.True(t, result.Fallback)
}

func TestGenerateAuthConfigMessage(t *testing.T) {
	gen := &fakeGenerator{err: &ai.AuthConfigError{Reason: "empty credential"}}
	svc := NewService(Options{}, gen, nil, newFakeStore(), nil)

	_, err := svc.Generate(context.Background(), dinnerInput())
	require.Error(t, err)
	assert.Equal(t, "Recipe generation is not configured. Please contact administrator.", UserMessage(err))
	assert.Equal(t, 500, HTTPError(err).Status)
}

func TestGeneratePartialPersistence(t *testing.T) {
	gen := &fakeGenerator{content: recipesContent("First", "Second")}
	store := newFakeStore()
	store.failFor = "Second"
	svc := NewService(Options{PersistWorkers: 2}, gen, nil, store, nil)

	result, err := svc.Generate(context.Background(), dinnerInput())
	require.NoError(t, err)
	require.Len(t, result.Recipes, 2)
	assert.Equal(t, "First", result.Recipes[0].Title)
	assert.Equal(t, "Second", result.Recipes[1].Title)

	assert.Equal(t, []string{result.Recipes[1].ID}, result.Unpersisted)
	assert.Contains(t, store.saved, result.Recipes[0].ID)
	assert.NotContains(t, store.saved, result.Recipes[1].ID)
}

func TestGenerateUsesProfilePreferences(t *testing.T) {
	var captured ai.Prompt
	gen := &capturingGenerator{content: recipesContent("One"), prompt: &captured}
	profiles := fakeProfiles{prefs: &recipe.ProfilePreferences{Religious: []string{"Kosher"}}}
	svc := NewService(Options{}, gen, profiles, newFakeStore(), nil)

	in := dinnerInput()
	in.UseProfilePrefs = true

	result, err := svc.Generate(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kosher"}, result.Recipes[0].DietaryTags)
	assert.Contains(t, captured.User, "Kosher")
	assert.NotContains(t, captured.User, "Gluten-Free")
}

func TestGenerateProfileFailureUsesSelections(t *testing.T) {
	gen := &fakeGenerator{content: recipesContent("One")}
	profiles := fakeProfiles{err: errors.New("db down")}
	svc := NewService(Options{}, gen, profiles, newFakeStore(), nil)

	in := dinnerInput()
	in.UseProfilePrefs = true

	result, err := svc.Generate(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"Vegetarian", "Gluten-Free"}, result.Recipes[0].DietaryTags)
}

type capturingGenerator struct {
	content string
	prompt  *ai.Prompt
}

func (g *capturingGenerator) Mode() string { return config.ModeDirect }

func (g *capturingGenerator) Generate(ctx context.Context, prompt ai.Prompt) (*ai.RawResponse, error) {
	*g.prompt = prompt
	body, _ := json.Marshal(ai.ChatResponse{
		Choices: []ai.Choice{{Message: ai.Message{Content: g.content}}},
	})
	return &ai.RawResponse{Body: body}, nil
}

func TestGenerateSingleFlightPerCreator(t *testing.T) {
	gen := &fakeGenerator{content: recipesContent("Slow"), block: make(chan struct{})}
	svc := NewService(Options{}, gen, nil, newFakeStore(), nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Generate(context.Background(), dinnerInput())
		done <- err
	}()

	require.Eventually(t, func() bool { return gen.callCount() == 1 }, time.Second, 5*time.Millisecond)

	_, err := svc.Generate(context.Background(), dinnerInput())
	assert.ErrorIs(t, err, ErrGenerationInProgress)
	assert.Equal(t, 409, HTTPError(err).Status)

	other := dinnerInput()
	other.CreatorID = "user-2"
	otherDone := make(chan error, 1)
	go func() {
		_, err := svc.Generate(context.Background(), other)
		otherDone <- err
	}()

	close(gen.block)
	require.NoError(t, <-done)
	require.NoError(t, <-otherDone)
}

func TestGenerateCallerCancellation(t *testing.T) {
	gen := &fakeGenerator{content: recipesContent("Late"), block: make(chan struct{})}
	store := newFakeStore()
	svc := NewService(Options{FallbackActive: true}, gen, nil, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Generate(ctx, dinnerInput())
		done <- err
	}()

	require.Eventually(t, func() bool { return gen.callCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	close(gen.block)
	assert.Empty(t, store.saved)
}

func TestGenerateUsesCache(t *testing.T) {
	gen := &fakeGenerator{content: recipesContent("Cached", "Other")}
	responseCache := cache.NewManager(config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Minute})
	defer responseCache.Close()
	store := newFakeStore()
	svc := NewService(Options{}, gen, nil, store, responseCache)

	first, err := svc.Generate(context.Background(), dinnerInput())
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), dinnerInput())
	require.NoError(t, err)

	assert.Equal(t, 1, gen.callCount())
	assert.Equal(t, first.Recipes, second.Recipes)
	assert.Empty(t, second.Unpersisted)
	// 命中快取不會再寫入一次
	assert.Equal(t, 2, store.persistCount())
	assert.Len(t, store.saved, 2)
}

func TestGenerateCacheScopedToCreator(t *testing.T) {
	gen := &fakeGenerator{content: recipesContent("Shared")}
	responseCache := cache.NewManager(config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Minute})
	defer responseCache.Close()
	store := newFakeStore()
	svc := NewService(Options{}, gen, nil, store, responseCache)

	first, err := svc.Generate(context.Background(), dinnerInput())
	require.NoError(t, err)

	other := dinnerInput()
	other.CreatorID = "user-2"
	second, err := svc.Generate(context.Background(), other)
	require.NoError(t, err)

	assert.Equal(t, 2, gen.callCount())
	assert.NotEqual(t, first.Recipes[0].ID, second.Recipes[0].ID)
	assert.Equal(t, "user-2", store.saved[second.Recipes[0].ID])
}

func TestGenerateDoesNotCachePartialPersistence(t *testing.T) {
	gen := &fakeGenerator{content: recipesContent("Good", "Bad")}
	responseCache := cache.NewManager(config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Minute})
	defer responseCache.Close()
	store := newFakeStore()
	store.failFor = "Bad"
	svc := NewService(Options{}, gen, nil, store, responseCache)

	first, err := svc.Generate(context.Background(), dinnerInput())
	require.NoError(t, err)
	require.Len(t, first.Unpersisted, 1)

	_, err = svc.Generate(context.Background(), dinnerInput())
	require.NoError(t, err)
	assert.Equal(t, 2, gen.callCount())
}

func TestGenerateDoesNotCacheFailures(t *testing.T) {
	gen := &fakeGenerator{content: "garbage"}
	responseCache := cache.NewManager(config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Minute})
	defer responseCache.Close()
	svc := NewService(Options{}, gen, nil, newFakeStore(), responseCache)

	_, err := svc.Generate(context.Background(), dinnerInput())
	require.Error(t, err)
	_, err = svc.Generate(context.Background(), dinnerInput())
	require.Error(t, err)

	assert.Equal(t, 2, gen.callCount())
}

func TestGenerateTimeout(t *testing.T) {
	gen := &slowGenerator{}
	svc := NewService(Options{Timeout: 20 * time.Millisecond}, gen, nil, newFakeStore(), nil)

	_, err := svc.Generate(context.Background(), dinnerInput())

	var tErr *ai.TransportError
	require.True(t, errors.As(err, &tErr), "got %v", err)
}

type slowGenerator struct{}

func (slowGenerator) Mode() string { return config.ModeDirect }

func (slowGenerator) Generate(ctx context.Context, prompt ai.Prompt) (*ai.RawResponse, error) {
	<-ctx.Done()
	return nil, &ai.TransportError{Err: ctx.Err()}
}

func TestHTTPErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{&recipe.ValidationError{Kind: recipe.MissingDishType}, 400, "Please select a dish type"},
		{&ai.TransportError{Err: errors.New("dial tcp")}, 502, "Failed to generate recipes. Please try again."},
		{&ai.UpstreamError{StatusCode: 500}, 502, "Failed to generate recipes. Please try again."},
		{&recipe.ParseError{Kind: recipe.MissingRecipeList}, 502, "Failed to generate recipes. Please try again."},
		{fmt.Errorf("wrapped: %w", &ai.AuthConfigError{Reason: "x"}), 500, "Recipe generation is not configured. Please contact administrator."},
	}

	for _, tt := range tests {
		e := HTTPError(tt.err)
		assert.Equal(t, tt.status, e.Status)
		assert.Equal(t, tt.msg, e.Message)
	}
}
