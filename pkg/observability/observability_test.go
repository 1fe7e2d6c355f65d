package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/lineage/pkg/observability"
)

func attributeKey(name string) attribute.Key {
	return attribute.Key(name)
}

func TestInit_NoopWithoutExporters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogJSON = true

	providers, err := observability.InitWithWriter(cfg, &buf)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.Nil(t, providers.MetricsHandler)

	providers.Logger.Info("hello")

	var entry map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "lineage", entry["service"])
	assert.Equal(t, "cli", entry["mode"])
}

func TestInit_PrometheusHandlerServesMetrics(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.Prometheus = true

	providers, err := observability.InitWithWriter(cfg, io.Discard)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })
	require.NotNil(t, providers.MetricsHandler)

	gm, err := observability.NewGatherMetrics(providers.Meter)
	require.NoError(t, err)

	gm.RecordCommits(context.Background(), 7)

	server, err := observability.StartMetricsServer("127.0.0.1:0", providers.MetricsHandler, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, server.Stop(context.Background())) })

	resp, err := http.Get("http://" + server.Addr() + "/metrics")
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "lineage_gather_commits_total")

	health, err := http.Get("http://" + server.Addr() + "/healthz")
	require.NoError(t, err)

	defer health.Body.Close()

	healthBody, err := io.ReadAll(health.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, health.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(healthBody))
}

func TestTracingHandler_AddsSpanContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler := observability.NewTracingHandler(slog.NewJSONHandler(&buf, nil), "svc", observability.ModeCLI)
	logger := slog.New(handler)

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")

	logger.InfoContext(ctx, "inside")
	span.End()

	var entry map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, span.SpanContext().TraceID().String(), entry["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), entry["span_id"])
	assert.Equal(t, "svc", entry["service"])
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, err := observability.ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = observability.ParseLevel("loud")
	require.Error(t, err)
}

func TestAttributeAllowed(t *testing.T) {
	t.Parallel()

	assert.True(t, observability.AttributeAllowed("lineage.repo"))
	assert.True(t, observability.AttributeAllowed("gather.commits"))
	assert.True(t, observability.AttributeAllowed("error"))
	assert.False(t, observability.AttributeAllowed("http.url"))
	assert.False(t, observability.AttributeAllowed("author"))
	assert.False(t, observability.AttributeAllowed("lineage.author.email"))
}

func TestAttributeFilter_StripsBlockedAttributes(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(observability.NewAttributeFilter(recorder)))

	_, span := tp.Tracer("test").Start(context.Background(), "gather",
		trace.WithAttributes(
			attribute.Int("gather.commits", 3),
			attribute.String("author.email", "someone@example.com"),
		))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)

	attrs := ended[0].Attributes()
	require.Len(t, attrs, 1)
	assert.Equal(t, attributeKey("gather.commits"), attrs[0].Key)
}

func TestFilteringTracerProvider_SuppressesPerFileSpans(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := observability.NewFilteringTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	tracer := tp.Tracer("test")

	ctx, root := tracer.Start(context.Background(), "gather")
	_, blame := tracer.Start(ctx, observability.SpanGatherBlame)
	blame.End()
	root.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "gather", ended[0].Name())
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	assert.Nil(t, observability.ParseOTLPHeaders(""))
	assert.Nil(t, observability.ParseOTLPHeaders("garbage"))
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, observability.ParseOTLPHeaders("a=1, b = 2"))
}
