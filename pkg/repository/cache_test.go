package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/depcollect/pkg/artifact"
)

// countingReader counts reads and can block them until released
type countingReader struct {
	next    DescriptorReader
	calls   atomic.Int64
	release chan struct{}
}

func (c *countingReader) ReadDescriptor(ctx context.Context, req DescriptorRequest) (*Descriptor, error) {
	c.calls.Add(1)
	if c.release != nil {
		<-c.release
	}
	return c.next.ReadDescriptor(ctx, req)
}

func newCountingMemory() (*Memory, *countingReader) {
	m := NewMemory()
	m.AddDependencies(artifact.MustParse("g:a:1"), artifact.MustParseDependency("g:b:1", "compile"))
	m.AddDependencies(artifact.MustParse("g:a:2"))
	return m, &countingReader{next: m}
}

func TestCachingReader_HitsAndMisses(t *testing.T) {
	_, counting := newCountingMemory()
	c := NewCachingReader(counting, 100, time.Minute, nil)
	req := DescriptorRequest{Artifact: artifact.MustParse("g:a:1"), Repositories: []Remote{central}}

	for i := 0; i < 3; i++ {
		d, err := c.ReadDescriptor(context.Background(), req)
		require.NoError(t, err)
		assert.Len(t, d.Dependencies, 1)
	}
	assert.Equal(t, int64(1), counting.calls.Load())

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.ItemCount)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 0.001)

	// a different repository list is a different entry
	_, err := c.ReadDescriptor(context.Background(), DescriptorRequest{Artifact: req.Artifact, Repositories: []Remote{central, snaps}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counting.calls.Load())
}

func TestCachingReader_ErrorsAreNotCached(t *testing.T) {
	_, counting := newCountingMemory()
	c := NewCachingReader(counting, 100, time.Minute, nil)
	req := DescriptorRequest{Artifact: artifact.MustParse("g:missing:1")}

	for i := 0; i < 2; i++ {
		_, err := c.ReadDescriptor(context.Background(), req)
		assert.True(t, errors.Is(err, ErrNotFound))
	}
	assert.Equal(t, int64(2), counting.calls.Load())
}

func TestCachingReader_ConcurrentMissesCollapse(t *testing.T) {
	_, counting := newCountingMemory()
	counting.release = make(chan struct{})
	c := NewCachingReader(counting, 100, time.Minute, nil)
	req := DescriptorRequest{Artifact: artifact.MustParse("g:a:1")}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.ReadDescriptor(context.Background(), req)
			assert.NoError(t, err)
		}()
	}

	require.Eventually(t, func() bool { return counting.calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(counting.release)
	wg.Wait()

	assert.Equal(t, int64(1), counting.calls.Load())
}

func TestCachingReader_Invalidate(t *testing.T) {
	_, counting := newCountingMemory()
	c := NewCachingReader(counting, 100, time.Minute, nil)
	ctx := context.Background()

	a1 := DescriptorRequest{Artifact: artifact.MustParse("g:a:1")}
	a2 := DescriptorRequest{Artifact: artifact.MustParse("g:a:2")}
	_, _ = c.ReadDescriptor(ctx, a1)
	_, _ = c.ReadDescriptor(ctx, a2)
	require.Equal(t, int64(2), c.Stats().ItemCount)

	// extension is ignored when invalidating
	require.NoError(t, c.Invalidate(ctx, artifact.MustParse("g:a:pom:1")))
	assert.Equal(t, int64(1), c.Stats().ItemCount)

	_, _ = c.ReadDescriptor(ctx, a1)
	assert.Equal(t, int64(3), counting.calls.Load())

	c.Purge()
	assert.Equal(t, int64(0), c.Stats().ItemCount)
}

func TestCachingReader_Observe(t *testing.T) {
	_, counting := newCountingMemory()
	c := NewCachingReader(counting, 100, time.Minute, nil)
	var hits, misses int
	c.Observe(func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	})

	req := DescriptorRequest{Artifact: artifact.MustParse("g:a:1")}
	for i := 0; i < 3; i++ {
		_, err := c.ReadDescriptor(context.Background(), req)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, hits)
	assert.Equal(t, 1, misses)
}
