package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Operation tracks one traced and measured backend call.
type Operation struct {
	Account   string
	Name      string
	StartTime time.Time

	span    trace.Span
	metrics *Metrics
}

// StartOperation starts an api.request span and counts the request as in
// flight. metrics may be nil.
func StartOperation(ctx context.Context, metrics *Metrics, account, name string) (context.Context, *Operation) {
	ctx, span := StartSpan(ctx, SpanAPIRequest, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String(AttrAccount, account),
		attribute.String(AttrOperation, name),
	)
	metrics.RecordRequestStart(ctx)
	return ctx, &Operation{
		Account:   account,
		Name:      name,
		StartTime: time.Now(),
		span:      span,
		metrics:   metrics,
	}
}

// SetAttributes adds attributes to the operation span.
func (op *Operation) SetAttributes(kv ...attribute.KeyValue) {
	op.span.SetAttributes(kv...)
}

// End closes the span and records the request. A nil err means "ok".
func (op *Operation) End(ctx context.Context, err error) {
	duration := time.Since(op.StartTime)
	status := "ok"
	if err != nil {
		status = "error"
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, err.Error())
		op.span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	op.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	op.span.End()
	op.metrics.RecordRequestEnd(ctx, op.Account, op.Name, status, duration)
}

// Duration returns the elapsed time since the operation started.
func (op *Operation) Duration() time.Duration {
	return time.Since(op.StartTime)
}
