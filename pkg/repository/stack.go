package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Backend types
const (
	TypeMemory     = "memory"
	TypeFileSystem = "filesystem"
	TypeS3         = "s3"
)

// Config selects and configures the descriptor backends
type Config struct {
	Type string // "memory", "filesystem", "s3"

	// Filesystem config
	FilesystemRoot string
	Watch          bool

	// S3 config
	S3 S3Config

	// SQL version index, replaces the backend's own version listing
	SQLDriver string
	SQLDSN    string

	// Redis config
	RedisURL string
	RedisTTL time.Duration

	// In-process cache, disabled when CacheSize is 0
	CacheSize int
	CacheTTL  time.Duration

	// Repositories used when a request names none
	Repositories []Remote
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		Type:           TypeFileSystem,
		FilesystemRoot: "/tmp/depcollect",
		SQLDriver:      DriverPostgres,
		RedisTTL:       1 * time.Hour,
		CacheSize:      10000,
		CacheTTL:       10 * time.Minute,
		Repositories: []Remote{
			{ID: "central", URL: "https://repo.maven.apache.org/maven2"},
		},
	}
}

// ErrReadOnly is returned by Publish when the backend cannot store descriptors
var ErrReadOnly = errors.New("repository is read-only")

// Stack is a set of backends assembled from a Config. Descriptors and Ranges
// are what a collector should use; the other fields are set when the
// corresponding layer is enabled.
type Stack struct {
	Descriptors DescriptorReader
	Ranges      VersionRangeResolver

	Memory      *Memory
	FileSystem  *FileSystem
	S3          *S3Reader
	SQL         *SQLIndex
	Cache       *CachingReader
	Redis       *RedisCache
	RedisClient *redis.Client
	Watcher     *Watcher

	// Local identifies the backend in the SQL index
	Local Remote
}

// Open builds the backend described by cfg, then layers the SQL index, the
// Redis cache and the in-process cache on top of it, in that order.
func Open(ctx context.Context, cfg Config, log *logrus.Logger) (*Stack, error) {
	if log == nil {
		log = logrus.New()
	}

	s := &Stack{}
	var err error

	switch cfg.Type {
	case TypeMemory:
		s.Local = Remote{ID: "memory", URL: "memory://"}
		s.Memory = NewMemory()
		s.Descriptors, s.Ranges = s.Memory, s.Memory
	case TypeFileSystem:
		if err := os.MkdirAll(cfg.FilesystemRoot, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create repository root: %w", err)
		}
		if s.FileSystem, err = NewFileSystem(cfg.FilesystemRoot, log); err != nil {
			return nil, err
		}
		s.Local = Remote{ID: "local", URL: "file://" + s.FileSystem.Root()}
		s.Descriptors, s.Ranges = s.FileSystem, s.FileSystem
	case TypeS3:
		client, err := NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		s.S3 = NewS3Reader(client, cfg.S3.Bucket, cfg.S3.Prefix, log)
		s.Local = s.S3.repo
		s.Descriptors, s.Ranges = s.S3, s.S3
	default:
		return nil, fmt.Errorf("invalid repository type: %s (must be memory, filesystem, or s3)", cfg.Type)
	}

	if cfg.SQLDSN != "" {
		if s.SQL, err = OpenSQLIndex(ctx, cfg.SQLDriver, cfg.SQLDSN, log); err != nil {
			return nil, err
		}
		if err := s.SQL.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		s.Ranges = s.SQL
	}

	if cfg.RedisURL != "" {
		if s.RedisClient, err = NewRedisClient(ctx, cfg.RedisURL); err != nil {
			s.Close()
			return nil, err
		}
		s.Redis = NewRedisCache(s.RedisClient, s.Descriptors, cfg.RedisTTL, log)
		s.Descriptors = s.Redis
	}

	if cfg.CacheSize > 0 {
		s.Cache = NewCachingReader(s.Descriptors, cfg.CacheSize, cfg.CacheTTL, log)
		s.Descriptors = s.Cache
	}

	if cfg.Watch && s.FileSystem != nil {
		if s.Watcher, err = NewWatcher(s.FileSystem, log, s.Invalidators()...); err != nil {
			s.Close()
			return nil, err
		}
	}

	log.WithFields(logrus.Fields{
		"type":  cfg.Type,
		"sql":   s.SQL != nil,
		"redis": s.Redis != nil,
		"cache": s.Cache != nil,
		"watch": s.Watcher != nil,
	}).Info("Repository backend ready")

	return s, nil
}

// Publish stores d in the memory or filesystem backend, records its version
// in the SQL index and drops stale cache entries.
func (s *Stack) Publish(ctx context.Context, d *Descriptor) error {
	switch {
	case s.FileSystem != nil:
		if err := s.FileSystem.WriteDescriptor(d); err != nil {
			return err
		}
	case s.Memory != nil:
		s.Memory.Add(d)
	default:
		return ErrReadOnly
	}

	if s.SQL != nil {
		if err := s.SQL.Publish(ctx, d.Artifact, s.Local); err != nil {
			return err
		}
	}
	for _, inv := range s.Invalidators() {
		if err := inv.Invalidate(ctx, d.Artifact); err != nil {
			return fmt.Errorf("failed to invalidate %s: %w", d.Artifact, err)
		}
	}
	return nil
}

// Invalidators returns the enabled caches, outermost first
func (s *Stack) Invalidators() []Invalidator {
	var out []Invalidator
	if s.Cache != nil {
		out = append(out, s.Cache)
	}
	if s.Redis != nil {
		out = append(out, s.Redis)
	}
	return out
}

// Observe reports every cache lookup to fn, tagged "lru" or "redis"
func (s *Stack) Observe(fn func(cache string, hit bool)) {
	if s.Cache != nil {
		s.Cache.Observe(func(hit bool) { fn("lru", hit) })
	}
	if s.Redis != nil {
		s.Redis.Observe(func(hit bool) { fn("redis", hit) })
	}
}

// Close releases the watcher and any connections
func (s *Stack) Close() error {
	var errs []error
	if s.Watcher != nil {
		errs = append(errs, s.Watcher.Close())
	}
	if s.RedisClient != nil {
		errs = append(errs, s.RedisClient.Close())
	}
	if s.SQL != nil {
		errs = append(errs, s.SQL.Close())
	}
	return errors.Join(errs...)
}
