package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 生成結果
const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
	OutcomeCached   = "cached"
)

var (
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_recipe_generations_total",
			Help: "Recipe generation requests by outcome",
		},
		[]string{"outcome"},
	)

	GenerationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_recipe_generation_failures_total",
			Help: "Generation and parse failures by stage and kind",
		},
		[]string{"stage", "kind"},
	)

	PersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fusion_recipe_persist_failures_total",
			Help: "Recipes shown to the user but not saved",
		},
	)

	RecipesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_recipes_generated_total",
			Help: "Recipes returned to callers by source",
		},
		[]string{"source"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fusion_recipe_upstream_duration_seconds",
			Help:    "Model endpoint call duration",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"mode"},
	)

	GenerationsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fusion_recipe_generations_in_flight",
			Help: "Generations currently running",
		},
	)
)
