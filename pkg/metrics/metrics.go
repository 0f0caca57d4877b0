// Package metrics exposes the Prometheus registry shared by the exporter.
// All metrics are defined in their respective packages (client, cache,
// ratelimit, fetch) and registered via promauto on the default registry.
//
// An export run is a batch job, so metrics are not scraped; the CLI dumps
// them once at the end of a run in node-exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the exporter.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is where WriteTextfile reads metric families from.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// WriteTextfile writes every gathered metric to path for the node exporter
// textfile collector. The write is atomic.
func WriteTextfile(path string) error {
	return writeTextfile(path, Gatherer)
}

func writeTextfile(path string, g prometheus.Gatherer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - stars_rate_limit_remaining (Gauge): Requests remaining in the current window
//   - stars_rate_limit_pauses_total (Counter): Pauses triggered by a low budget
//   - stars_rate_limit_pause_seconds (Histogram): Pause durations
//
// Cache Metrics (pkg/cache):
//   - stars_cache_lookups_total{result} (Counter): Lookups by result (hit, miss, expired)
//   - stars_cache_revalidated_total (Counter): Pages confirmed by 304 Not Modified
//   - stars_cache_stored_bytes_total (Counter): Page bytes written to the cache
//   - stars_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - stars_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - stars_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - stars_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, parse)
//
// Fetch Metrics (pkg/fetch):
//   - stars_pages_fetched_total (Counter): Non-empty pages accumulated
//   - stars_records_fetched_total (Counter): Records accumulated
//   - stars_fetch_runs_total{state} (Counter): Runs by terminal state (done, failed)
//
// Example Prometheus Queries:
//
//   # Runs that ended early
//   increase(stars_fetch_runs_total{state="failed"}[1d])
//
//   # Time spent waiting for the rate budget
//   sum(increase(stars_rate_limit_pause_seconds_sum[1d]))
//
//   # Share of pages replayed from the cache
//   increase(stars_cache_revalidated_total[1d]) / increase(stars_pages_fetched_total[1d])
