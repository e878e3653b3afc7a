// Package cache holds resolved proxy specs per origin in two generations
// ("current" and "previous") with a fixed per-generation capacity. Filling
// the current generation rolls it over: the previous generation is dropped
// wholesale, the current one ages into its place and a fresh map starts.
// Live memory is bounded to roughly twice the capacity while recently used
// entries get a grace period instead of abrupt eviction.
package cache

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hostrelay/go-proxyroute/internal/proxyspec"
)

const DefaultCapacity = 5000

type entry struct {
	key  key
	spec proxyspec.Spec
}

type Cacher interface {
	Get(origin string) (proxyspec.Spec, bool)
	Set(origin string, spec proxyspec.Spec)
	Len() int
	Rolls() int64
	Clear()
}

type Cache struct {
	mu     sync.Mutex
	cur    map[uint64]entry
	prev   map[uint64]entry
	cap    int
	rolls  atomic.Int64
	logger *slog.Logger
}

func New(capacity int, logger *slog.Logger) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		cur:    make(map[uint64]entry),
		prev:   make(map[uint64]entry),
		cap:    capacity,
		logger: logger,
	}
}

// Get looks the origin up in the current generation first; a hit found
// only in the previous generation is promoted so it survives the next
// rollover.
func (c *Cache) Get(origin string) (proxyspec.Spec, bool) {
	k := newKey(origin)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.cur[k.v]; ok && e.key.isTheSame(k) {
		return e.spec, true
	}
	if e, ok := c.prev[k.v]; ok && e.key.isTheSame(k) {
		delete(c.prev, k.v)
		c.rollLocked()
		c.cur[k.v] = e
		return e.spec, true
	}
	return proxyspec.Spec{}, false
}

// Set stores the spec in the current generation, rolling generations first
// when the current one is full.
func (c *Cache) Set(origin string, spec proxyspec.Spec) {
	k := newKey(origin)

	c.mu.Lock()
	c.rollLocked()
	c.cur[k.v] = entry{key: k, spec: spec}
	c.mu.Unlock()
}

// rollLocked ages the generations when the current one has no room for
// one more insertion. Caller holds c.mu.
func (c *Cache) rollLocked() {
	if len(c.cur) < c.cap {
		return
	}
	c.prev = c.cur
	c.cur = make(map[uint64]entry)
	n := c.rolls.Add(1)
	if c.logger != nil {
		c.logger.Debug("proxy cache generation rolled", "capacity", c.cap, "rolls", n)
	}
}

// Len is the number of live entries across both generations.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cur) + len(c.prev)
}

// Rolls is the total number of generation rollovers since construction.
func (c *Cache) Rolls() int64 {
	return c.rolls.Load()
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.cur = make(map[uint64]entry)
	c.prev = make(map[uint64]entry)
	c.mu.Unlock()
}
