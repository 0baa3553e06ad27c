package artifactcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrComputeOnce(t *testing.T) {
	c := New(Options{})
	ctx := context.Background()

	var calls int32
	const workers = 50

	var wg sync.WaitGroup
	results := make([]interface{}, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.GetOrCompute(ctx, "CONTENT:1", func(ctx context.Context) (interface{}, error) {
				atomic.AddInt32(&calls, 1)
				time.Sleep(20 * time.Millisecond) // hold the flight open so the others pile on
				return "formatted", nil
			})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "compute must run exactly once per key")
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "formatted", results[i])
	}
}

func TestGetOrComputeErrorNotCached(t *testing.T) {
	c := New(Options{})
	ctx := context.Background()

	boom := errors.New("provider unavailable")
	var calls int32
	compute := func(ctx context.Context) (interface{}, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, boom
		}
		return "ok", nil
	}

	_, err := c.GetOrCompute(ctx, "RULES:7", compute)
	require.ErrorIs(t, err, boom)

	_, ok := c.Get("RULES:7")
	assert.False(t, ok, "failed computations must not be cached")

	v, err := c.GetOrCompute(ctx, "RULES:7", compute)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "a later call retries after a failure")
}

func TestGetOrComputeCallerTimeout(t *testing.T) {
	c := New(Options{})

	started := make(chan struct{})
	release := make(chan struct{})
	computeCtxErr := make(chan error, 1)
	callerErr := make(chan error, 1)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		_, err := c.GetOrCompute(ctx, "CONTENT:9", func(ctx context.Context) (interface{}, error) {
			close(started)
			<-release
			computeCtxErr <- ctx.Err()
			return "late", nil
		})
		callerErr <- err
	}()

	<-started
	time.Sleep(60 * time.Millisecond) // let the caller's deadline pass
	close(release)

	require.ErrorIs(t, <-callerErr, context.DeadlineExceeded)

	// The shared computation keeps running on a detached context; the
	// abandoning caller must not have canceled it.
	assert.NoError(t, <-computeCtxErr)
}

func TestSetEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(Options{Capacity: 3})

	c.Set("CONTENT:1", "a")
	c.Set("CONTENT:2", "b")
	c.Set("CONTENT:3", "c")

	// Touch 1 so 2 becomes the oldest.
	_, ok := c.Get("CONTENT:1")
	require.True(t, ok)

	c.Set("CONTENT:4", "d")

	_, ok = c.Get("CONTENT:2")
	assert.False(t, ok, "least recently used entry should be evicted")
	for _, key := range []string{"CONTENT:1", "CONTENT:3", "CONTENT:4"} {
		_, ok := c.Get(key)
		assert.True(t, ok, "key %s should survive", key)
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New(Options{TTL: 20 * time.Millisecond})

	c.Set("CONTENT:5", "short-lived")
	_, ok := c.Get("CONTENT:5")
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)
	_, ok = c.Get("CONTENT:5")
	assert.False(t, ok, "entry should expire after its TTL")
}

func TestDistinctKeysComputeIndependently(t *testing.T) {
	c := New(Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("CONTENT:%d", i)
			v, err := c.GetOrCompute(ctx, key, func(ctx context.Context) (interface{}, error) {
				return i, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, i, v)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, c.Len())
}

func TestInvalidate(t *testing.T) {
	c := New(Options{})
	c.Set("RULES:3", "cached")
	c.Invalidate("RULES:3")

	_, ok := c.Get("RULES:3")
	assert.False(t, ok)
}
