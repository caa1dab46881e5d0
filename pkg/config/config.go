package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/depcollect/pkg/collection"
	"github.com/platinummonkey/depcollect/pkg/collection/filter"
	"github.com/platinummonkey/depcollect/pkg/collection/manager"
	"github.com/platinummonkey/depcollect/pkg/collection/selector"
	"github.com/platinummonkey/depcollect/pkg/collection/traverser"
	"github.com/platinummonkey/depcollect/pkg/observability"
	"github.com/platinummonkey/depcollect/pkg/repository"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Repository backend configuration
	Repository repository.Config

	// Collection defaults
	Collector CollectorConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string

	// Cron schedule for purging the in-process descriptor cache, empty to disable
	CachePurgeSchedule string
}

// CollectorConfig names the capabilities a session is built from
type CollectorConfig struct {
	Parallelism int
	Verbose     bool
	CyclePolicy string
	Manager     string
	Selector    string
	Traverser   string
	Filter      string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel logrus.Level

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
	OTelSampleRatio    float64
}

// OTel converts the settings for observability.InitOTel
func (o ObservabilityConfig) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        o.OTelEnabled,
		Endpoint:       o.OTelEndpoint,
		ServiceName:    o.OTelServiceName,
		ServiceVersion: o.OTelServiceVersion,
		Insecure:       o.OTelInsecure,
		SampleRatio:    o.OTelSampleRatio,
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Repository:    loadRepositoryConfig(),
		Collector:     loadCollectorConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:               getEnv("DEPCOLLECT_HOST", "0.0.0.0"),
		Port:               getEnv("DEPCOLLECT_PORT", "8080"),
		ReadTimeout:        getEnvDuration("DEPCOLLECT_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getEnvDuration("DEPCOLLECT_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:        getEnvDuration("DEPCOLLECT_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:    getEnvDuration("DEPCOLLECT_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:         getEnv("DEPCOLLECT_HEALTH_PORT", "9090"),
		CachePurgeSchedule: getEnv("DEPCOLLECT_CACHE_PURGE_SCHEDULE", ""),
	}
}

// loadRepositoryConfig loads backend configuration from environment
func loadRepositoryConfig() repository.Config {
	cfg := repository.DefaultConfig()

	if repoType := getEnv("DEPCOLLECT_REPOSITORY_TYPE", ""); repoType != "" {
		cfg.Type = repoType
	}

	// Filesystem config
	if fsRoot := getEnv("DEPCOLLECT_FILESYSTEM_ROOT", ""); fsRoot != "" {
		cfg.FilesystemRoot = fsRoot
	}
	cfg.Watch = getEnvBool("DEPCOLLECT_FILESYSTEM_WATCH", false)

	// S3 config
	cfg.S3 = repository.S3Config{
		Bucket:       getEnv("DEPCOLLECT_S3_BUCKET", ""),
		Prefix:       getEnv("DEPCOLLECT_S3_PREFIX", ""),
		Region:       getEnv("DEPCOLLECT_S3_REGION", "us-east-1"),
		Endpoint:     getEnv("DEPCOLLECT_S3_ENDPOINT", ""),
		AccessKey:    getEnv("DEPCOLLECT_S3_ACCESS_KEY", ""),
		SecretKey:    getEnv("DEPCOLLECT_S3_SECRET_KEY", ""),
		UsePathStyle: getEnvBool("DEPCOLLECT_S3_USE_PATH_STYLE", false),
	}

	// SQL version index
	if driver := getEnv("DEPCOLLECT_SQL_DRIVER", ""); driver != "" {
		cfg.SQLDriver = driver
	}
	cfg.SQLDSN = getEnv("DEPCOLLECT_SQL_DSN", "")

	// Redis config
	cfg.RedisURL = getEnv("DEPCOLLECT_REDIS_URL", "")
	if ttl := getEnvDuration("DEPCOLLECT_REDIS_TTL", 0); ttl > 0 {
		cfg.RedisTTL = ttl
	}

	// Cache config
	cfg.CacheSize = getEnvInt("DEPCOLLECT_CACHE_SIZE", cfg.CacheSize)
	if ttl := getEnvDuration("DEPCOLLECT_CACHE_TTL", 0); ttl > 0 {
		cfg.CacheTTL = ttl
	}

	if remotes := getEnv("DEPCOLLECT_REPOSITORIES", ""); remotes != "" {
		cfg.Repositories = parseRemotes(remotes)
	}

	return cfg
}

// loadCollectorConfig loads collection defaults from environment
func loadCollectorConfig() CollectorConfig {
	return CollectorConfig{
		Parallelism: getEnvInt("DEPCOLLECT_PARALLELISM", 8),
		Verbose:     getEnvBool("DEPCOLLECT_VERBOSE", false),
		CyclePolicy: getEnv("DEPCOLLECT_CYCLE_POLICY", "coordinate"),
		Manager:     getEnv("DEPCOLLECT_MANAGER", "classic"),
		Selector:    getEnv("DEPCOLLECT_SELECTOR", "default"),
		Traverser:   getEnv("DEPCOLLECT_TRAVERSER", "fat"),
		Filter:      getEnv("DEPCOLLECT_VERSION_FILTER", "none"),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	level, err := observability.ParseLevel(getEnv("DEPCOLLECT_LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}

	return ObservabilityConfig{
		LogLevel:           level,
		MetricsEnabled:     getEnvBool("DEPCOLLECT_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("DEPCOLLECT_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("DEPCOLLECT_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("DEPCOLLECT_OTEL_SERVICE_NAME", "depcollect"),
		OTelServiceVersion: getEnv("DEPCOLLECT_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("DEPCOLLECT_OTEL_INSECURE", true),
		OTelSampleRatio:    getEnvFloat("DEPCOLLECT_OTEL_SAMPLE_RATIO", 1.0),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate repository config based on type
	switch c.Repository.Type {
	case repository.TypeMemory:
	case repository.TypeFileSystem:
		if c.Repository.FilesystemRoot == "" {
			return fmt.Errorf("filesystem root is required for filesystem repositories")
		}
	case repository.TypeS3:
		if c.Repository.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required for s3 repositories")
		}
		if c.Repository.S3.Region == "" && c.Repository.S3.Endpoint == "" {
			return fmt.Errorf("S3 region or endpoint is required for s3 repositories")
		}
	default:
		return fmt.Errorf("invalid repository type: %s (must be memory, filesystem, or s3)", c.Repository.Type)
	}

	if c.Repository.SQLDSN != "" && c.Repository.SQLDriver != repository.DriverPostgres && c.Repository.SQLDriver != repository.DriverSQLite {
		return fmt.Errorf("invalid sql driver: %s (must be postgres or sqlite3)", c.Repository.SQLDriver)
	}
	if c.Repository.CacheSize < 0 {
		return fmt.Errorf("cache size must not be negative")
	}

	// Validate collector config
	if c.Collector.Parallelism < 1 {
		return fmt.Errorf("collector parallelism must be at least 1")
	}
	if _, err := c.Collector.Session(); err != nil {
		return err
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
		if c.Observability.OTelSampleRatio < 0 || c.Observability.OTelSampleRatio > 1 {
			return fmt.Errorf("OpenTelemetry sample ratio must be between 0 and 1")
		}
	}

	return nil
}

// Session builds the collection session the names describe
func (c CollectorConfig) Session() (*collection.Session, error) {
	m, ok := manager.ByName(c.Manager)
	if !ok {
		return nil, fmt.Errorf("unknown dependency manager %q", c.Manager)
	}
	s, err := selector.ByName(c.Selector)
	if err != nil {
		return nil, err
	}
	t, ok := traverser.ByName(c.Traverser)
	if !ok {
		return nil, fmt.Errorf("unknown dependency traverser %q", c.Traverser)
	}
	f, ok := filter.ByName(c.Filter)
	if !ok {
		return nil, fmt.Errorf("unknown version filter %q", c.Filter)
	}
	policy, err := collection.ParseCyclePolicy(c.CyclePolicy)
	if err != nil {
		return nil, err
	}

	return &collection.Session{
		Manager:       m,
		Selector:      s,
		Traverser:     t,
		VersionFilter: f,
		Verbose:       c.Verbose,
		CyclePolicy:   policy,
	}, nil
}

// parseRemotes parses "id=url,id=url". An entry without "=" uses the url as id.
func parseRemotes(value string) []repository.Remote {
	var remotes []repository.Remote
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, url, ok := strings.Cut(entry, "=")
		if !ok {
			url = id
		}
		remotes = append(remotes, repository.Remote{ID: strings.TrimSpace(id), URL: strings.TrimSpace(url)})
	}
	return remotes
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float64 environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
