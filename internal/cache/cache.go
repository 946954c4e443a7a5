// Package cache is a keyed TTL store with coalesced recomputation.
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type entry[V any] struct {
	value V
	exp   time.Time
}

// Cache holds values of one type keyed by string. Entries expire lazily on
// read. Concurrent misses for the same key share a single computation.
type Cache[V any] struct {
	ttl   time.Duration
	clock Clock

	mu      sync.RWMutex
	entries map[string]entry[V]
	// epoch moves on InvalidateAll, keyGen on Invalidate of one key.
	epoch  uint64
	keyGen map[string]uint64

	group singleflight.Group
}

func New[V any](ttl time.Duration, clock Clock) *Cache[V] {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Cache[V]{
		ttl:     ttl,
		clock:   clock,
		entries: map[string]entry[V]{},
		keyGen:  map[string]uint64{},
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.clock.Now().Before(e.exp) {
		return e.value, true
	}
	if ok {
		c.mu.Lock()
		if cur, still := c.entries[key]; still && !c.clock.Now().Before(cur.exp) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
	}
	var zero V
	return zero, false
}

// Set stores value under key. A non-positive ttl uses the cache default.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value, ttl)
}

func (c *Cache[V]) setLocked(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.entries[key] = entry[V]{value: value, exp: c.clock.Now().Add(ttl)}
}

func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.keyGen[key]++
	c.mu.Unlock()
}

func (c *Cache[V]) InvalidateAll() {
	c.mu.Lock()
	c.entries = map[string]entry[V]{}
	c.keyGen = map[string]uint64{}
	c.epoch++
	c.mu.Unlock()
}

// stampLocked names the current generation of key. Computations are
// coalesced per stamp, so callers arriving after an invalidation never join
// a computation that started before it.
func (c *Cache[V]) stampLocked(key string) string {
	return key + "#" + strconv.FormatUint(c.epoch, 10) + "." + strconv.FormatUint(c.keyGen[key], 10)
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetOrCompute returns the live value for key or runs fn to produce one.
// Errors are returned to every waiter and never stored. A result computed
// across an invalidation is returned but not stored.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	c.mu.RLock()
	stamp := c.stampLocked(key)
	c.mu.RUnlock()

	ch := c.group.DoChan(stamp, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := fn(ctx)
		if err != nil {
			return v, err
		}

		c.mu.Lock()
		if c.stampLocked(key) == stamp {
			c.setLocked(key, v, ttl)
		}
		c.mu.Unlock()
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, false, res.Err
		}
		return res.Val.(V), false, nil
	case <-ctx.Done():
		var zero V
		return zero, false, ctx.Err()
	}
}
