// Package observability wires OpenTelemetry tracing and metrics for the
// session toolkit.
//
// Tracing and metrics are both optional. With no provider installed the
// global otel no-op implementations are used, so instrumented code never
// needs to check whether observability is enabled.
//
//	providers, err := observability.Init(ctx, cfg, log)
//	defer providers.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(providers.Meter.Meter("sessionkit"))
//	ctx, op := observability.StartOperation(ctx, metrics, "escort", "GET /escort/me")
//	defer op.End(ctx, err)
package observability
