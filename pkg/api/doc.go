// Package api provides the HTTP API of the dependency collection service.
//
// # Endpoints
//
//	POST /v1/collect?format=tree|cytoscape|flat|order
//	GET  /v1/descriptors/{groupId:artifactId[:extension[:classifier]]:version}
//	GET  /health/live, /health/ready
//	GET  /metrics
//
// A collect request names what to collect and, optionally, overrides the
// server's session defaults:
//
//	{
//	  "root": {"coords": "org.example:app:1.0"},
//	  "managedDependencies": [{"coords": "org.example:util:2.1", "scope": "runtime"}],
//	  "session": {"manager": "transitive", "verbose": true}
//	}
//
// Partial failures are not HTTP errors. The response lists them under
// "errors" next to the tree that could be collected.
//
// # Usage
//
//	server := api.NewServer(c, stack.Descriptors, cfg.Collector,
//		api.WithLogger(log),
//		api.WithMetrics(metrics, registry),
//		api.WithRepositories(cfg.Repository.Repositories),
//	)
//	http.ListenAndServe(":8080", server)
package api
