// Package config loads service configuration from environment variables.
//
// # Configuration Structure
//
// Server settings:
//
//	DEPCOLLECT_HOST="0.0.0.0"
//	DEPCOLLECT_PORT="8080"
//	DEPCOLLECT_HEALTH_PORT="9090"
//	DEPCOLLECT_CACHE_PURGE_SCHEDULE="0 * * * *"
//
// Repository settings:
//
//	DEPCOLLECT_REPOSITORY_TYPE="filesystem"  # memory, filesystem, s3
//	DEPCOLLECT_FILESYSTEM_ROOT="/var/depcollect"
//	DEPCOLLECT_FILESYSTEM_WATCH="true"
//	DEPCOLLECT_S3_BUCKET="descriptors"
//	DEPCOLLECT_SQL_DRIVER="postgres"  # postgres, sqlite3
//	DEPCOLLECT_SQL_DSN="postgres://localhost/depcollect"
//	DEPCOLLECT_REDIS_URL="redis://localhost:6379"
//	DEPCOLLECT_CACHE_SIZE="10000"
//	DEPCOLLECT_REPOSITORIES="central=https://repo.maven.apache.org/maven2"
//
// Collection defaults:
//
//	DEPCOLLECT_PARALLELISM="8"
//	DEPCOLLECT_MANAGER="classic"  # classic, transitive, default, none
//	DEPCOLLECT_SELECTOR="default"  # see selector.ByName
//	DEPCOLLECT_TRAVERSER="fat"
//	DEPCOLLECT_VERSION_FILTER="none"
//	DEPCOLLECT_CYCLE_POLICY="coordinate"  # coordinate, versionless
//
// Observability settings:
//
//	DEPCOLLECT_LOG_LEVEL="info"
//	DEPCOLLECT_METRICS_ENABLED="true"
//	DEPCOLLECT_OTEL_ENABLED="true"
//	DEPCOLLECT_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//	session, _ := cfg.Collector.Session()
package config
