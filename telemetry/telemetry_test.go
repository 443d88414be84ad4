package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"noop exporter", func(c *Config) { c.Exporter = "noop" }, false},
		{"unknown exporter", func(c *Config) { c.Exporter = "jaeger" }, true},
		{"ratio too high", func(c *Config) { c.SamplerRatio = 1.5 }, true},
		{"negative interval", func(c *Config) { c.ExportInterval = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	assert.Equal(t, "confres", cfg.ServiceName)
	assert.Equal(t, "stdout", cfg.Exporter)
	assert.Equal(t, 1.0, cfg.SamplerRatio)
	assert.NoError(t, cfg.Validate())
}

func TestNewProviders_Disabled(t *testing.T) {
	providers, err := NewProviders(context.Background(), Config{}, &bytes.Buffer{})
	require.NoError(t, err)

	_, span := providers.TracerProvider.Tracer("test").Start(context.Background(), "op")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestNewProviders_Stdout(t *testing.T) {
	var buf bytes.Buffer
	providers, err := NewProviders(context.Background(), Config{Enabled: true, ServiceName: "confres-test"}, &buf)
	require.NoError(t, err)

	_, span := providers.TracerProvider.Tracer("test").Start(context.Background(), "confres.resolve")
	span.End()

	counter, err := providers.MeterProvider.Meter("test").Int64Counter("confres_test_total")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	require.NoError(t, providers.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "confres.resolve")
	assert.Contains(t, buf.String(), "confres_test_total")
}

func TestNewProviders_Invalid(t *testing.T) {
	_, err := NewProviders(context.Background(), Config{Enabled: true, Exporter: "zipkin"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestMetricsBuilder(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	builder := NewMetricsBuilder(mp.Meter("test"), "confres")

	ops, err := builder.NewOperationMetrics("resolve")
	require.NoError(t, err)
	ops.Total.Add(context.Background(), 2)
	ops.Errors.Add(context.Background(), 1)
	ops.Duration.Record(context.Background(), 0.5)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	var names []string
	for _, m := range rm.ScopeMetrics[0].Metrics {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{
		"confres_resolve_total",
		"confres_resolve_duration_seconds",
		"confres_resolve_errors_total",
	}, names)

	assert.Equal(t, "plain", NewMetricsBuilder(mp.Meter("x"), "").fullName("plain"))
}
