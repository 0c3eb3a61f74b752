package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.ServiceName != "sessionkit" {
		t.Errorf("expected sessionkit, got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected localhost:4318, got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected 1.0, got %f", cfg.SampleRate)
	}
	if cfg.MetricInterval != 15*time.Second {
		t.Errorf("expected 15s, got %v", cfg.MetricInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{SampleRate: 1.5}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for sample rate above 1")
	}
}

func TestInitDisabled(t *testing.T) {
	p, err := Init(context.Background(), Config{}, nil)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if p.Tracer != nil || p.Meter != nil {
		t.Fatal("disabled config should install no providers")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}

func TestInitEnabled(t *testing.T) {
	ctx := context.Background()
	p, err := Init(ctx, Config{Enabled: true, Insecure: true, Endpoint: "localhost:4318"}, nil)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if p.Tracer == nil || p.Meter == nil {
		t.Fatal("expected both providers")
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_ = p.Shutdown(shutdownCtx)
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tt := range tests {
		if got := sampler(tt.rate).Description(); got != tt.want {
			t.Errorf("sampler(%v) = %s, want %s", tt.rate, got, tt.want)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordRequestStart(ctx)
	m.RecordRequestEnd(ctx, "escort", "GET /me", "ok", time.Millisecond)
	m.RecordRefresh(ctx, "refresh.escort", "ok")
	m.RecordCache(ctx, "reviews", "hit")
	m.RecordEvent(ctx, "pageOpen", "guest")
	m.RecordError(ctx, "TIMEOUT", "api")
}

func TestMetricsRecorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	ctx := context.Background()
	m.RecordCache(ctx, "reviews", "hit")
	m.RecordCache(ctx, "reviews", "miss")
	m.RecordRefresh(ctx, "refresh.member", "ok")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if sum, ok := md.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					got[md.Name] += dp.Value
				}
			}
		}
	}
	if got["cache.lookup.total"] != 2 {
		t.Errorf("expected 2 cache lookups, got %d", got["cache.lookup.total"])
	}
	if got["session.refresh.total"] != 1 {
		t.Errorf("expected 1 refresh, got %d", got["session.refresh.total"])
	}
}

func TestOperationSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx := context.Background()
	_, op := StartOperation(ctx, nil, "escort", "GET /escort/me")
	op.End(ctx, errors.New("boom"))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != SpanAPIRequest {
		t.Errorf("expected %s, got %s", SpanAPIRequest, spans[0].Name)
	}
	var status string
	for _, kv := range spans[0].Attributes {
		if string(kv.Key) == AttrStatus {
			status = kv.Value.AsString()
		}
	}
	if status != "error" {
		t.Errorf("expected status error, got %q", status)
	}
}
