package generation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"fusion-recipes/internal/core/ai"
	"fusion-recipes/internal/core/cache"
	"fusion-recipes/internal/core/recipe"
	"fusion-recipes/internal/infrastructure/config"
	"fusion-recipes/internal/infrastructure/metrics"
	"fusion-recipes/internal/infrastructure/observability"
	"fusion-recipes/internal/pkg/common"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrGenerationInProgress 同一使用者已有進行中的生成
var ErrGenerationInProgress = errors.New("generation already in progress")

// ProfileSource 個人檔案偏好來源
type ProfileSource interface {
	Get(ctx context.Context, userID string) (*recipe.ProfilePreferences, error)
}

// RecipeStore 食譜寫入
type RecipeStore interface {
	Persist(ctx context.Context, r recipe.Recipe, creatorID string) error
}

// Input 一次生成請求
type Input struct {
	CreatorID       string
	Selections      recipe.Selections
	UseProfilePrefs bool
}

// Result 生成結果；Unpersisted 為已回傳但未寫入的食譜 ID
type Result struct {
	Recipes     []recipe.Recipe
	Unpersisted []string
	Fallback    bool
}

// Options 管線設定
type Options struct {
	FallbackActive bool
	Timeout        time.Duration
	PersistWorkers int
}

// OptionsFromConfig 從應用設定取出管線設定
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FallbackActive: cfg.FallbackActive(),
		Timeout:        cfg.AI.Timeout,
		PersistWorkers: cfg.Generation.PersistWorkers,
	}
}

// Service 食譜生成管線
type Service struct {
	opts      Options
	generator ai.Generator
	parser    *recipe.Parser
	fallback  *recipe.FallbackSupplier
	profiles  ProfileSource
	store     RecipeStore
	cache     cache.Store
	tracer    trace.Tracer

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewService 創建生成管線，profiles 與 responseCache 可為 nil
func NewService(opts Options, generator ai.Generator, profiles ProfileSource, store RecipeStore, responseCache cache.Store) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.PersistWorkers <= 0 {
		opts.PersistWorkers = 1
	}
	return &Service{
		opts:      opts,
		generator: generator,
		parser:    recipe.NewParser(),
		fallback:  recipe.NewFallbackSupplier(),
		profiles:  profiles,
		store:     store,
		cache:     responseCache,
		tracer:    otel.Tracer(observability.TracerName),
		inflight:  make(map[string]struct{}),
	}
}

// Generate 執行完整管線：彙整偏好、組裝提示詞、呼叫模型、解析、寫入
func (s *Service) Generate(ctx context.Context, in Input) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "generation.Generate",
		trace.WithAttributes(attribute.String("creator_id", in.CreatorID)))
	defer span.End()

	if !s.acquire(in.CreatorID) {
		return nil, ErrGenerationInProgress
	}
	defer s.release(in.CreatorID)

	metrics.GenerationsInFlight.Inc()
	defer metrics.GenerationsInFlight.Dec()

	var prefs *recipe.ProfilePreferences
	if in.UseProfilePrefs && s.profiles != nil {
		p, err := s.profiles.Get(ctx, in.CreatorID)
		if err != nil {
			common.LogWarn("讀取個人檔案失敗，改用畫面選擇",
				zap.String("creator_id", in.CreatorID),
				zap.Error(err),
			)
		} else {
			prefs = p
		}
	}

	req, err := recipe.Aggregate(in.Selections, prefs, in.UseProfilePrefs)
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("dish_type", req.DishType),
		attribute.StringSlice("cuisines", req.Cuisines),
	)

	prompt := recipe.BuildPrompt(req)
	key := cache.PromptKey(in.CreatorID, prompt.System, prompt.User)

	// 命中時食譜已在目錄中，不再重複寫入
	if recipes, ok := s.lookup(ctx, key); ok {
		metrics.GenerationsTotal.WithLabelValues(metrics.OutcomeCached).Inc()
		common.LogInfo("食譜生成完成",
			zap.String("creator_id", in.CreatorID),
			zap.Int("recipes", len(recipes)),
			zap.Bool("cached", true),
		)
		return &Result{Recipes: recipes}, nil
	}

	recipes, err := s.produce(ctx, prompt, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		span.RecordError(err)
		if !s.opts.FallbackActive {
			metrics.GenerationsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		common.LogWarn("生成失敗，改用備用食譜",
			zap.String("creator_id", in.CreatorID),
			zap.Error(err),
		)
		fallback := s.fallback.Supply(req)
		metrics.GenerationsTotal.WithLabelValues(metrics.OutcomeFallback).Inc()
		metrics.RecipesGenerated.WithLabelValues("fallback").Add(float64(len(fallback)))
		return &Result{Recipes: fallback, Fallback: true}, nil
	}

	metrics.GenerationsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	metrics.RecipesGenerated.WithLabelValues("model").Add(float64(len(recipes)))

	result := &Result{
		Recipes:     recipes,
		Unpersisted: s.persistAll(ctx, recipes, in.CreatorID),
	}
	if len(result.Unpersisted) == 0 {
		s.remember(ctx, key, recipes)
	}

	common.LogInfo("食譜生成完成",
		zap.String("creator_id", in.CreatorID),
		zap.Int("recipes", len(result.Recipes)),
		zap.Int("unpersisted", len(result.Unpersisted)),
		zap.Bool("cached", false),
	)
	return result, nil
}

// lookup 取出同一建立者先前已寫入的食譜
func (s *Service) lookup(ctx context.Context, key string) ([]recipe.Recipe, bool) {
	if s.cache == nil {
		return nil, false
	}

	content, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("讀取快取失敗", zap.Error(err))
		}
		return nil, false
	}

	var recipes []recipe.Recipe
	if err := json.Unmarshal([]byte(content), &recipes); err != nil || len(recipes) == 0 {
		common.LogWarn("快取內容無效，重新生成", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return recipes, true
}

// remember 只快取全部寫入成功的結果
func (s *Service) remember(ctx context.Context, key string, recipes []recipe.Recipe) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(recipes)
	if err != nil {
		common.LogWarn("序列化快取失敗", zap.Error(err))
		return
	}
	if err := s.cache.Set(context.WithoutCancel(ctx), key, string(data)); err != nil {
		common.LogWarn("寫入快取失敗", zap.Error(err))
	}
}

// produce 呼叫模型並解析
func (s *Service) produce(ctx context.Context, prompt ai.Prompt, req recipe.GenerationRequest) ([]recipe.Recipe, error) {
	raw, err := s.call(ctx, prompt)
	if err != nil {
		if ctx.Err() == nil {
			recordFailure("generate", err)
			common.LogError("呼叫模型失敗",
				zap.String("stage", "generate"),
				zap.String("request_id", ai.RequestIDFrom(ctx)),
				zap.Error(err),
			)
		}
		return nil, err
	}

	_, parseSpan := s.tracer.Start(ctx, "generation.parse")
	content, err := recipe.Content(raw)
	var recipes []recipe.Recipe
	if err == nil {
		recipes, err = s.parser.ParseContent(content, req)
	}
	if err != nil {
		parseSpan.RecordError(err)
		parseSpan.End()
		recordFailure("parse", err)
		common.LogError("解析模型輸出失敗",
			zap.String("stage", "parse"),
			zap.String("request_id", ai.RequestIDFrom(ctx)),
			zap.Error(err),
		)
		return nil, err
	}
	parseSpan.SetAttributes(attribute.Int("recipes", len(recipes)))
	parseSpan.End()

	return recipes, nil
}

// call 以脫離呼叫端取消的 context 呼叫模型；呼叫端先離開時丟棄結果
func (s *Service) call(ctx context.Context, prompt ai.Prompt) (*ai.RawResponse, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.Timeout)
	callCtx, span := s.tracer.Start(callCtx, "generation.upstream",
		trace.WithAttributes(attribute.String("mode", s.generator.Mode())))

	type outcome struct {
		raw *ai.RawResponse
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		defer cancel()
		defer span.End()

		start := time.Now()
		raw, err := s.generator.Generate(callCtx, prompt)
		metrics.UpstreamDuration.WithLabelValues(s.generator.Mode()).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		done <- outcome{raw: raw, err: err}
	}()

	select {
	case out := <-done:
		return out.raw, out.err
	case <-ctx.Done():
		common.LogWarn("呼叫端已取消，丟棄生成結果", zap.Error(ctx.Err()))
		return nil, ctx.Err()
	}
}

// persistAll 平行寫入每一筆食譜，彼此獨立；回傳寫入失敗的 ID（依原順序）
func (s *Service) persistAll(ctx context.Context, recipes []recipe.Recipe, creatorID string) []string {
	if s.store == nil || len(recipes) == 0 {
		return nil
	}

	persistCtx := context.WithoutCancel(ctx)
	persistCtx, span := s.tracer.Start(persistCtx, "generation.persist",
		trace.WithAttributes(attribute.Int("recipes", len(recipes))))
	defer span.End()

	failed := make([]bool, len(recipes))
	var g errgroup.Group
	g.SetLimit(s.opts.PersistWorkers)

	for i := range recipes {
		i := i
		g.Go(func() error {
			if err := s.store.Persist(persistCtx, recipes[i], creatorID); err != nil {
				failed[i] = true
				metrics.PersistFailures.Inc()
				common.LogError("食譜已顯示但未儲存",
					zap.String("stage", "persist"),
					zap.String("recipe_id", recipes[i].ID),
					zap.String("creator_id", creatorID),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	var unpersisted []string
	for i, f := range failed {
		if f {
			unpersisted = append(unpersisted, recipes[i].ID)
		}
	}
	if len(unpersisted) > 0 {
		span.SetAttributes(attribute.Int("unpersisted", len(unpersisted)))
	}
	return unpersisted
}

func (s *Service) acquire(creatorID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[creatorID]; busy {
		return false
	}
	s.inflight[creatorID] = struct{}{}
	return true
}

func (s *Service) release(creatorID string) {
	s.mu.Lock()
	delete(s.inflight, creatorID)
	s.mu.Unlock()
}

func recordFailure(stage string, err error) {
	metrics.GenerationFailures.WithLabelValues(stage, failureKind(err)).Inc()
}

func failureKind(err error) string {
	var (
		authErr  *ai.AuthConfigError
		upErr    *ai.UpstreamError
		tErr     *ai.TransportError
		parseErr *recipe.ParseError
	)
	switch {
	case errors.As(err, &authErr):
		return "auth_config"
	case errors.As(err, &upErr):
		return "upstream"
	case errors.As(err, &tErr):
		return "transport"
	case errors.As(err, &parseErr):
		return string(parseErr.Kind)
	}
	return "unknown"
}
