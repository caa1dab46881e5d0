package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/depcollect/pkg/artifact"
)

// DefaultRedisPrefix namespaces cached descriptors
const DefaultRedisPrefix = "depcollect:descriptor:"

// RedisCache is a descriptor cache shared between processes. Redis failures
// degrade to reading through to the next reader.
type RedisCache struct {
	client *redis.Client
	next   DescriptorReader
	ttl    time.Duration
	prefix string
	log    *logrus.Logger

	observe func(hit bool)
}

// NewRedisClient parses a redis URL and verifies connectivity
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisCache wraps next with a redis cache
func NewRedisCache(client *redis.Client, next DescriptorReader, ttl time.Duration, log *logrus.Logger) *RedisCache {
	if log == nil {
		log = logrus.New()
	}
	return &RedisCache{
		client: client,
		next:   next,
		ttl:    ttl,
		prefix: DefaultRedisPrefix,
		log:    log,
	}
}

// Key returns the redis key for a descriptor request
func (c *RedisCache) Key(req DescriptorRequest) string {
	a := req.Artifact
	return fmt.Sprintf("%s%s:%s:%s:%s:%x", c.prefix, a.GroupID(), a.ArtifactID(), a.Version(),
		a.Extension()+a.Classifier(), Fingerprint(req.Repositories))
}

// ReadDescriptor implements DescriptorReader
func (c *RedisCache) ReadDescriptor(ctx context.Context, req DescriptorRequest) (*Descriptor, error) {
	key := c.Key(req)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var doc DescriptorDocument
		if err := json.Unmarshal(data, &doc); err == nil {
			if d, err := doc.ToDescriptor(req.Artifact); err == nil {
				c.record(true)
				return d, nil
			}
		}
		// corrupt entry
		c.client.Del(ctx, key)
	case err != redis.Nil:
		c.log.WithError(err).WithField("key", key).Warn("Redis get failed, reading through")
	}

	c.record(false)
	d, err := c.next.ReadDescriptor(ctx, req)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(NewDescriptorDocument(d))
	if err != nil {
		return d, nil
	}
	if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("Redis set failed")
	}
	return d, nil
}

// Observe registers fn to be told about every lookup. It must be called
// before the cache is shared.
func (c *RedisCache) Observe(fn func(hit bool)) {
	c.observe = fn
}

func (c *RedisCache) record(hit bool) {
	if c.observe != nil {
		c.observe(hit)
	}
}

// Invalidate implements Invalidator
func (c *RedisCache) Invalidate(ctx context.Context, a artifact.Artifact) error {
	pattern := fmt.Sprintf("%s%s:%s:%s:*", c.prefix, a.GroupID(), a.ArtifactID(), a.Version())
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan %s: %w", pattern, err)
	}
	return nil
}
