package repository

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/platinummonkey/depcollect/pkg/artifact"
)

// Invalidator drops cached state for an artifact. Only group, artifact id
// and version are significant.
type Invalidator interface {
	Invalidate(ctx context.Context, a artifact.Artifact) error
}

// CacheStats reports cache effectiveness
type CacheStats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	ItemCount int64   `json:"itemCount"`
	HitRate   float64 `json:"hitRate"`
}

type cacheEntry struct {
	artifact   artifact.Artifact
	descriptor *Descriptor
}

// CachingReader keeps recently read descriptors in an expiring LRU shared by
// every collection. Concurrent misses for the same key collapse into one read.
type CachingReader struct {
	next   DescriptorReader
	cache  *lru.LRU[string, cacheEntry]
	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
	log    *logrus.Logger

	observe func(hit bool)
}

// NewCachingReader wraps next with an LRU of size entries expiring after ttl
// (0 disables expiry).
func NewCachingReader(next DescriptorReader, size int, ttl time.Duration, log *logrus.Logger) *CachingReader {
	if log == nil {
		log = logrus.New()
	}
	if size < 10 {
		size = 10
	}
	return &CachingReader{
		next:  next,
		cache: lru.NewLRU[string, cacheEntry](size, nil, ttl),
		log:   log,
	}
}

func descriptorCacheKey(req DescriptorRequest) string {
	return req.Artifact.Key() + "@" + strconv.FormatUint(Fingerprint(req.Repositories), 16)
}

// ReadDescriptor implements DescriptorReader
func (c *CachingReader) ReadDescriptor(ctx context.Context, req DescriptorRequest) (*Descriptor, error) {
	key := descriptorCacheKey(req)
	if e, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		c.record(true)
		return e.descriptor, nil
	}
	c.misses.Add(1)
	c.record(false)

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		d, err := c.next.ReadDescriptor(ctx, req)
		if err != nil {
			return nil, err
		}
		c.cache.Add(key, cacheEntry{artifact: req.Artifact, descriptor: d})
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Descriptor), nil
}

// Observe registers fn to be told about every lookup. It must be called
// before the reader is shared.
func (c *CachingReader) Observe(fn func(hit bool)) {
	c.observe = fn
}

func (c *CachingReader) record(hit bool) {
	if c.observe != nil {
		c.observe(hit)
	}
}

// Invalidate implements Invalidator
func (c *CachingReader) Invalidate(ctx context.Context, a artifact.Artifact) error {
	removed := 0
	for _, key := range c.cache.Keys() {
		e, ok := c.cache.Peek(key)
		if !ok {
			continue
		}
		if e.artifact.GroupID() == a.GroupID() && e.artifact.ArtifactID() == a.ArtifactID() && e.artifact.Version() == a.Version() {
			c.cache.Remove(key)
			removed++
		}
	}
	if removed > 0 {
		c.log.WithFields(logrus.Fields{
			"artifact": a.String(),
			"entries":  removed,
		}).Debug("Invalidated cached descriptors")
	}
	return nil
}

// Purge empties the cache
func (c *CachingReader) Purge() {
	c.cache.Purge()
}

// Stats returns cache statistics
func (c *CachingReader) Stats() CacheStats {
	stats := CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		ItemCount: int64(c.cache.Len()),
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}
