package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stars_cache_lookups_total",
			Help: "Page cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "expired"
	)

	revalidatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stars_cache_revalidated_total",
			Help: "Pages confirmed unchanged by a 304 Not Modified",
		},
	)

	storedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stars_cache_stored_bytes_total",
			Help: "Page body bytes written to the cache",
		},
	)

	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stars_cache_errors_total",
			Help: "Page cache operation errors",
		},
		[]string{"operation"}, // "lookup", "save", "refresh", "forget"
	)
)
