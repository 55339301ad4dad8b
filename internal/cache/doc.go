// Package cache provides the sharded LRU cache that backs pipeline lookup.
//
// Pipelines are keyed by small comparable structs. A Hasher spreads keys
// over 16 shards so encoders on different goroutines rarely contend:
//
//	c := cache.New[BlitKey, *Pipeline](64, cache.StringerHasher[BlitKey])
//	p := c.GetOrCreate(key, func() *Pipeline { return build(key) })
//
// Values created by GetOrCreate are built under the shard lock, so a key
// is never built twice while it stays cached. Evicted values are handed to
// the OnEvict callback, which lets owners release GPU objects.
package cache
