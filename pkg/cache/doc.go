// Package cache is an optional Redis page store for starred repository
// listings.
//
// GitHub answers a request carrying If-None-Match with 304 Not Modified when
// a page is unchanged. Each page is kept as a Redis hash (body, etag, link,
// stored_at, expires) that expires together with the entry, so a rerun can
// replay unchanged pages instead of downloading them again:
//
//	manager := cache.NewManager(redisClient, cache.DefaultTTL)
//	key := cache.PageKey(pageURL)
//
//	entry, err := manager.Lookup(ctx, key)
//	if err == nil && entry.Condition(req) {
//		// a 304 means entry.Body and entry.Link are still current
//	}
//
// Metrics: stars_cache_lookups_total{result}, stars_cache_revalidated_total,
// stars_cache_stored_bytes_total and stars_cache_errors_total{operation}.
//
// The rate budget is never cached; it is read fresh from every response.
package cache
