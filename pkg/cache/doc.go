// Package cache provides a generic, thread-safe LRU cache with optional
// eviction callbacks for resource cleanup.
//
// The cache keeps per-key state bounded: when capacity is exceeded the least
// recently used entry is evicted and, if configured, its cleanup callback is
// invoked. Within the kit it backs the tenant registry's validation
// memoization and the per-tenant logger cache.
//
// # Usage
//
//	c := cache.NewLRU[string, *slog.Logger](64)
//	c.Put("rs", logger)
//	if l, ok := c.Get("rs"); ok {
//		l.Info("hello")
//	}
//
// With cleanup on eviction:
//
//	c := cache.NewLRU(8, cache.WithEvict(func(db string, pool *pgxpool.Pool) {
//		pool.Close()
//	}))
//
// All operations are safe for concurrent use and run in O(1).
package cache
