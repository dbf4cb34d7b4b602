// Package cache provides small string key-value stores with TTL support and
// a stampede-safe read-through helper.
//
// Two stores are available: Memory, for a single process, and Redis, to share
// entries between processes. Both return ErrNotFound on a miss.
//
// Lookup wraps a Store and collapses concurrent misses for the same key into
// one call of the compute function:
//
//	l := cache.NewLookup(cache.NewMemory(), 10*time.Minute)
//	pkg, hit, err := l.GetOrSet(ctx, "welcome", func(ctx context.Context) (string, error) {
//		return locate(ctx, "welcome")
//	})
//
// Errors from the compute function are returned and never cached.
package cache
