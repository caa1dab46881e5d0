// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry tracing and health checks for the collector service.
//
// # Structured Logging
//
//	log := observability.NewLogger(logrus.InfoLevel, os.Stderr)
//	ctx = observability.WithLogger(ctx, log)
//	observability.FromContext(ctx).WithField("artifact", a).Info("collected")
//
// # Prometheus Metrics
//
// Every recording method accepts a nil receiver:
//
//	metrics := observability.NewMetrics(registry)
//	c := collector.New(store, store, collector.WithMetrics(metrics))
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(version)
//	checker.AddCheck("descriptors", true, observability.SQLCheck(db))
//	checker.AddCheck("cache", false, observability.RedisCheck(client))
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, cfg, log)
//	defer observability.ShutdownOTel(ctx, providers, log)
//
// # Related Packages
//
//   - pkg/config: observability configuration
//   - pkg/api: request logging and metrics middleware
package observability
