package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the toolkit's metric instruments. All record methods are
// safe on a nil *Metrics.
type Metrics struct {
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestActive   metric.Int64UpDownCounter
	refreshTotal    metric.Int64Counter
	cacheTotal      metric.Int64Counter
	eventTotal      metric.Int64Counter
	errorTotal      metric.Int64Counter
}

// NewMetrics registers the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var errs []error
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return c
	}

	m := &Metrics{
		requestTotal: counter("api.request.total", "Backend requests by account, operation and status"),
		refreshTotal: counter("session.refresh.total", "Session refresh attempts by outcome"),
		cacheTotal:   counter("cache.lookup.total", "Cache lookups by result"),
		eventTotal:   counter("analytics.event.total", "Tracked analytics events by name"),
		errorTotal:   counter("error.total", "Errors by code and component"),
	}
	var err error
	m.requestDuration, err = meter.Float64Histogram("api.request.duration",
		metric.WithDescription("Backend request latency"), metric.WithUnit("s"))
	errs = append(errs, err)
	m.requestActive, err = meter.Int64UpDownCounter("api.request.active",
		metric.WithDescription("In-flight backend requests"))
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("observability: instruments: %w", err)
	}
	return m, nil
}

// RecordRequestStart increments the in-flight request count.
func (m *Metrics) RecordRequestStart(ctx context.Context) {
	if m == nil {
		return
	}
	m.requestActive.Add(ctx, 1)
}

// RecordRequestEnd decrements in-flight requests and records the completed request.
func (m *Metrics) RecordRequestEnd(ctx context.Context, account, operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestActive.Add(ctx, -1)
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("account", account),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("account", account),
		attribute.String("operation", operation),
	))
}

// RecordRefresh records one refresh attempt.
func (m *Metrics) RecordRefresh(ctx context.Context, controller, outcome string) {
	if m == nil {
		return
	}
	m.refreshTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("controller", controller),
		attribute.String("outcome", outcome),
	))
}

// RecordCache records a cache lookup; result is hit, miss, expired or corrupt.
func (m *Metrics) RecordCache(ctx context.Context, cache, result string) {
	if m == nil {
		return
	}
	m.cacheTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache", cache),
		attribute.String("result", result),
	))
}

// RecordEvent counts an analytics event.
func (m *Metrics) RecordEvent(ctx context.Context, event, userType string) {
	if m == nil {
		return
	}
	m.eventTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("user_type", userType),
	))
}

// RecordError records an error by code and component.
func (m *Metrics) RecordError(ctx context.Context, code, component string) {
	if m == nil {
		return
	}
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("component", component),
	))
}
