// Package observability provides OpenTelemetry tracing and health checks.
//
// Tracing:
//
//	shutdown, err := observability.Init(ctx, cfg)
//	defer shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, "pipeline.run")
//	defer span.End()
//
// Health:
//
//	health := observability.NewServiceHealth("flowkitd", "1.0.0")
//	health.AddComponent(checker.CheckHealth(ctx))
package observability
