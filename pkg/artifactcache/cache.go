// Package artifactcache provides the keyed artifact cache shared by the
// content and rules stages. Lookups are cheap; misses funnel through a
// singleflight group so a compute function runs at most once per key no
// matter how many requests race on it.
package artifactcache

import (
	"container/list"
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL      = 1 * time.Hour
	DefaultCapacity = 1000

	purgeInterval = 10 * time.Minute
)

// Options configures a cache. Zero values fall back to the defaults.
type Options struct {
	// TTL is the per-entry time to live.
	TTL time.Duration
	// Capacity bounds the entry count; the least recently used entry is
	// evicted when the bound is exceeded.
	Capacity int
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.Capacity <= 0 {
		o.Capacity = DefaultCapacity
	}
	return o
}

// ComputeFunc produces the value for a missing key. It receives a context
// detached from any single caller so an abandoned request cannot poison
// the computation for other waiters.
type ComputeFunc func(ctx context.Context) (interface{}, error)

// Cache is a TTL + LRU bounded cache with a compute-once guarantee per
// key. Safe for unbounded concurrent use across distinct keys.
type Cache struct {
	store *gocache.Cache
	group singleflight.Group

	mu    sync.Mutex
	order *list.List // front = most recently used
	index map[string]*list.Element
	opts  Options
}

func New(opts Options) *Cache {
	opts = opts.withDefaults()
	return &Cache{
		store: gocache.New(opts.TTL, purgeInterval),
		order: list.New(),
		index: make(map[string]*list.Element),
		opts:  opts,
	}
}

// GetOrCompute returns the cached value for key, or runs compute to
// produce it. Concurrent callers for the same key block on the first
// in-flight computation and all receive its result. Failed computations
// are returned to every waiter and never cached; a later call is free to
// retry. If ctx is done before the shared computation finishes, only
// this caller's wait is abandoned.
func (c *Cache) GetOrCompute(ctx context.Context, key string, compute ComputeFunc) (interface{}, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		// A previous flight may have published between our miss and the
		// group admitting this call.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get returns the cached value for key and marks it recently used.
func (c *Cache) Get(key string) (interface{}, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		c.drop(key)
		return nil, false
	}
	c.touch(key)
	return v, true
}

// Set publishes a fully computed value for key, replacing any previous
// entry. Values are published atomically; readers never observe a
// partial write.
func (c *Cache) Set(key string, value interface{}) {
	c.store.Set(key, value, gocache.DefaultExpiration)

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.order.MoveToFront(el)
		return
	}
	c.index[key] = c.order.PushFront(key)
	for c.order.Len() > c.opts.Capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		k := oldest.Value.(string)
		c.order.Remove(oldest)
		delete(c.index, k)
		c.store.Delete(k)
	}
}

// Invalidate removes key from the cache, if present.
func (c *Cache) Invalidate(key string) {
	c.store.Delete(key)
	c.drop(key)
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

func (c *Cache) touch(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.order.MoveToFront(el)
	}
}

// drop removes stale LRU bookkeeping for keys the TTL store no longer
// holds.
func (c *Cache) drop(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.order.Remove(el)
		delete(c.index, key)
	}
}
