package cache

import (
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
)

const (
	// ShardCount is the number of independently locked shards. It must be
	// a power of two.
	ShardCount = 16

	// DefaultCapacity is the per-shard capacity used when none is given.
	DefaultCapacity = 64

	shardMask = ShardCount - 1
)

// Hasher selects the shard of a key.
type Hasher[K any] func(K) uint64

// StringHasher hashes s with FNV-1a.
func StringHasher(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// StringerHasher hashes the String form of k. Pipeline keys print every
// field, so equal strings mean equal keys.
func StringerHasher[K fmt.Stringer](k K) uint64 {
	return StringHasher(k.String())
}

// Stats is a snapshot of cache activity.
type Stats struct {
	Len       int
	Capacity  int // per shard
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is a sharded LRU cache. It is safe for concurrent use and must not
// be copied after New.
type Cache[K comparable, V any] struct {
	shards   [ShardCount]shard[K, V]
	hasher   Hasher[K]
	capacity int

	// OnEvict, when set before first use, receives every value that leaves
	// the cache: evicted, replaced by Set, deleted or cleared. It runs
	// without shard locks held.
	OnEvict func(K, V)

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type shard[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]
	lru     lruList[K]
}

type entry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

// New creates a cache holding up to capacity entries per shard. A
// non-positive capacity selects DefaultCapacity.
func New[K comparable, V any](capacity int, hasher Hasher[K]) *Cache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache[K, V]{hasher: hasher, capacity: capacity}
	for i := range c.shards {
		c.shards[i].entries = make(map[K]*entry[K, V])
	}
	return c
}

func (c *Cache[K, V]) shardOf(key K) *shard[K, V] {
	return &c.shards[c.hasher(key)&shardMask]
}

// Get returns the value cached under key and marks it recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	s := c.shardOf(key)
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	s.lru.MoveToFront(e.node)
	v := e.value
	s.mu.Unlock()
	c.hits.Add(1)
	return v, true
}

// Set stores value under key, replacing any previous value.
func (c *Cache[K, V]) Set(key K, value V) {
	s := c.shardOf(key)
	s.mu.Lock()
	if e, ok := s.entries[key]; ok {
		old := e.value
		e.value = value
		s.lru.MoveToFront(e.node)
		s.mu.Unlock()
		c.evict(key, old)
		return
	}
	dropped := c.insert(s, key, value)
	s.mu.Unlock()
	c.evictAll(dropped)
}

// GetOrCreate returns the cached value for key, building it with create on
// a miss. create runs under the shard lock and must not use the cache.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) V {
	s := c.shardOf(key)
	s.mu.Lock()
	if e, ok := s.entries[key]; ok {
		s.lru.MoveToFront(e.node)
		v := e.value
		s.mu.Unlock()
		c.hits.Add(1)
		return v
	}
	c.misses.Add(1)
	v := create()
	dropped := c.insert(s, key, v)
	s.mu.Unlock()
	c.evictAll(dropped)
	return v
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	s := c.shardOf(key)
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok {
		s.lru.Remove(e.node)
		delete(s.entries, key)
	}
	s.mu.Unlock()
	if ok {
		c.evict(key, e.value)
	}
	return ok
}

// Clear removes every entry.
func (c *Cache[K, V]) Clear() {
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		old := s.entries
		s.entries = make(map[K]*entry[K, V])
		s.lru.Clear()
		s.mu.Unlock()
		for k, e := range old {
			c.evict(k, e.value)
		}
	}
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	n := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// Stats returns a snapshot of the counters.
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Len:       c.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

type kv[K comparable, V any] struct {
	key   K
	value V
}

// insert adds a new entry, returning the entries evicted to make room.
// The caller holds s.mu.
func (c *Cache[K, V]) insert(s *shard[K, V], key K, value V) []kv[K, V] {
	var dropped []kv[K, V]
	for s.lru.Len() >= c.capacity {
		old, ok := s.lru.RemoveOldest()
		if !ok {
			break
		}
		dropped = append(dropped, kv[K, V]{old, s.entries[old].value})
		delete(s.entries, old)
		c.evictions.Add(1)
	}
	s.entries[key] = &entry[K, V]{value: value, node: s.lru.PushFront(key)}
	return dropped
}

func (c *Cache[K, V]) evictAll(dropped []kv[K, V]) {
	for _, d := range dropped {
		c.evict(d.key, d.value)
	}
}

func (c *Cache[K, V]) evict(key K, value V) {
	if c.OnEvict != nil {
		c.OnEvict(key, value)
	}
}
