// Package observability provides OpenTelemetry tracing and metrics for the
// grouping engine and the HTTP service around it.
//
// Setup:
//
//	shutdown, err := observability.Setup(ctx, cfg.Observability, "groupd", version, env)
//	defer shutdown(ctx)
//
// Engine metrics:
//
//	gm, err := observability.NewGroupMetrics(observability.Meter("groupd"))
//	groups := pipeline.GroupBy(src, keyFn, pipeline.WithObserver(gm))
//
// Health checks:
//
//	reg := observability.NewHealthRegistry("groupd", version)
//	reg.Register("grouping", func(ctx context.Context) observability.Health { ... })
//	health := reg.Check(ctx)
package observability
