package observability

import (
	"context"
	"fmt"
	"io"
	"strings"

	"fusion-recipes/internal/infrastructure/config"
	"fusion-recipes/internal/pkg/common"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// TracerName 管線使用的 tracer 名稱
const TracerName = "fusion-recipes"

// InitTracing 設定全域 tracer provider，停用時回傳 no-op shutdown
func InitTracing(cfg *config.Config, out io.Writer) (func(context.Context) error, error) {
	if !cfg.Tracing.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	opts := []stdouttrace.Option{}
	if out != nil {
		opts = append(opts, stdouttrace.WithWriter(out))
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", strings.TrimSpace(cfg.App.Name)),
		attribute.String("service.version", strings.TrimSpace(cfg.App.Version)),
		attribute.String("deployment.environment", strings.TrimSpace(cfg.App.Env)),
	)

	ratio := cfg.Tracing.SampleRatio
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	common.LogInfo("otel tracing initialized",
		zap.String("service", cfg.App.Name),
		zap.Float64("sample_ratio", ratio),
	)
	return tp.Shutdown, nil
}
