package observability

import (
	"bytes"
	"context"
	"testing"

	"fusion-recipes/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(&config.Config{}, nil)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracingExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{
		App:     config.AppConfig{Name: "fusion-recipes-test", Env: "test"},
		Tracing: config.TracingConfig{Enabled: true, SampleRatio: 1},
	}

	shutdown, err := InitTracing(cfg, &buf)
	require.NoError(t, err)

	_, span := otel.Tracer(TracerName).Start(context.Background(), "test.span")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "test.span")
}
