package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/depcollect/pkg/collection"
	"github.com/platinummonkey/depcollect/pkg/collection/manager"
	"github.com/platinummonkey/depcollect/pkg/repository"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			if got := getEnv(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{name: "returns true for 'true'", envValue: "true", want: true},
		{name: "returns true for 'TRUE'", envValue: "TRUE", want: true},
		{name: "returns true for '1'", envValue: "1", want: true},
		{name: "returns false for 'false'", defaultValue: true, envValue: "false", want: false},
		{name: "returns false for anything else", defaultValue: true, envValue: "yes", want: false},
		{name: "returns default when unset", defaultValue: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_BOOL", tt.envValue)
			}

			if got := getEnvBool("TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvNumbers tests the numeric helpers
func TestGetEnvNumbers(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty-two")
	t.Setenv("TEST_FLOAT", "0.25")
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_BAD_DURATION", "soon")

	assert.Equal(t, 42, getEnvInt("TEST_INT", 1))
	assert.Equal(t, 1, getEnvInt("TEST_BAD_INT", 1))
	assert.Equal(t, 7, getEnvInt("TEST_INT_UNSET", 7))
	assert.Equal(t, 0.25, getEnvFloat("TEST_FLOAT", 1))
	assert.Equal(t, 90*time.Second, getEnvDuration("TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, getEnvDuration("TEST_BAD_DURATION", time.Second))
}

func TestParseRemotes(t *testing.T) {
	got := parseRemotes("central=https://repo.example.org/central, https://mirror.example.org ,,")
	assert.Equal(t, []repository.Remote{
		{ID: "central", URL: "https://repo.example.org/central"},
		{ID: "https://mirror.example.org", URL: "https://mirror.example.org"},
	}, got)
}

// clearEnv unsets every DEPCOLLECT_ variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "DEPCOLLECT_") {
			t.Setenv(key, "")
		}
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Empty(t, cfg.Server.CachePurgeSchedule)

	assert.Equal(t, repository.TypeFileSystem, cfg.Repository.Type)
	assert.Equal(t, "/tmp/depcollect", cfg.Repository.FilesystemRoot)
	assert.Equal(t, 10000, cfg.Repository.CacheSize)
	require.Len(t, cfg.Repository.Repositories, 1)
	assert.Equal(t, "central", cfg.Repository.Repositories[0].ID)

	assert.Equal(t, 8, cfg.Collector.Parallelism)
	assert.Equal(t, logrus.InfoLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.MetricsEnabled)
	assert.False(t, cfg.Observability.OTelEnabled)
	assert.Equal(t, "depcollect", cfg.Observability.OTel().ServiceName)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	clearEnv(t)
	env := map[string]string{
		"DEPCOLLECT_PORT":                 "8000",
		"DEPCOLLECT_REPOSITORY_TYPE":      "s3",
		"DEPCOLLECT_S3_BUCKET":            "descriptors",
		"DEPCOLLECT_S3_ENDPOINT":          "http://localhost:9000",
		"DEPCOLLECT_S3_USE_PATH_STYLE":    "true",
		"DEPCOLLECT_SQL_DRIVER":           "sqlite3",
		"DEPCOLLECT_SQL_DSN":              "file::memory:",
		"DEPCOLLECT_REDIS_URL":            "redis://localhost:6379/1",
		"DEPCOLLECT_REDIS_TTL":            "5m",
		"DEPCOLLECT_CACHE_SIZE":           "0",
		"DEPCOLLECT_REPOSITORIES":         "a=https://a.example.org,b=https://b.example.org",
		"DEPCOLLECT_PARALLELISM":          "2",
		"DEPCOLLECT_VERBOSE":              "1",
		"DEPCOLLECT_MANAGER":              "transitive",
		"DEPCOLLECT_CYCLE_POLICY":         "versionless",
		"DEPCOLLECT_LOG_LEVEL":            "debug",
		"DEPCOLLECT_CACHE_PURGE_SCHEDULE": "@hourly",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "@hourly", cfg.Server.CachePurgeSchedule)
	assert.Equal(t, repository.TypeS3, cfg.Repository.Type)
	assert.Equal(t, "descriptors", cfg.Repository.S3.Bucket)
	assert.True(t, cfg.Repository.S3.UsePathStyle)
	assert.Equal(t, repository.DriverSQLite, cfg.Repository.SQLDriver)
	assert.Equal(t, 5*time.Minute, cfg.Repository.RedisTTL)
	assert.Equal(t, 0, cfg.Repository.CacheSize)
	assert.Len(t, cfg.Repository.Repositories, 2)
	assert.Equal(t, logrus.DebugLevel, cfg.Observability.LogLevel)

	session, err := cfg.Collector.Session()
	require.NoError(t, err)
	assert.True(t, session.Verbose)
	assert.Equal(t, collection.CycleByVersionless, session.CyclePolicy)
	assert.IsType(t, manager.NewTransitive(), session.Manager)
	assert.Nil(t, session.VersionFilter)
}

func validConfig() Config {
	return Config{
		Server:     ServerConfig{Port: "8080", HealthPort: "9090"},
		Repository: repository.Config{Type: repository.TypeMemory},
		Collector:  CollectorConfig{Parallelism: 1},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "missing port", modify: func(c *Config) { c.Server.Port = "" }, wantErr: "server port is required"},
		{name: "same ports", modify: func(c *Config) { c.Server.HealthPort = "8080" }, wantErr: "must be different"},
		{name: "filesystem without root", modify: func(c *Config) { c.Repository.Type = repository.TypeFileSystem }, wantErr: "filesystem root"},
		{name: "s3 without bucket", modify: func(c *Config) { c.Repository.Type = repository.TypeS3 }, wantErr: "S3 bucket"},
		{name: "unknown type", modify: func(c *Config) { c.Repository.Type = "ftp" }, wantErr: "invalid repository type"},
		{name: "bad sql driver", modify: func(c *Config) { c.Repository.SQLDriver, c.Repository.SQLDSN = "mysql", "x" }, wantErr: "invalid sql driver"},
		{name: "negative cache", modify: func(c *Config) { c.Repository.CacheSize = -1 }, wantErr: "cache size"},
		{name: "zero parallelism", modify: func(c *Config) { c.Collector.Parallelism = 0 }, wantErr: "parallelism"},
		{name: "unknown manager", modify: func(c *Config) { c.Collector.Manager = "strict" }, wantErr: "unknown dependency manager"},
		{name: "unknown selector", modify: func(c *Config) { c.Collector.Selector = "newest" }, wantErr: "unknown selector"},
		{name: "unknown traverser", modify: func(c *Config) { c.Collector.Traverser = "thin" }, wantErr: "unknown dependency traverser"},
		{name: "unknown filter", modify: func(c *Config) { c.Collector.Filter = "lowest" }, wantErr: "unknown version filter"},
		{name: "unknown cycle policy", modify: func(c *Config) { c.Collector.CyclePolicy = "hash" }, wantErr: "unknown cycle policy"},
		{name: "otel without endpoint", modify: func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelServiceName = "depcollect"
		}, wantErr: "endpoint"},
		{name: "otel bad ratio", modify: func(c *Config) {
			c.Observability = ObservabilityConfig{OTelEnabled: true, OTelEndpoint: "x:4317", OTelServiceName: "d", OTelSampleRatio: 2}
		}, wantErr: "sample ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
