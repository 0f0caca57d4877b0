package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate budget tracking.
var (
	rateRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stars_rate_limit_remaining",
		Help: "Requests remaining in the current GitHub rate limit window",
	})

	ratePausesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stars_rate_limit_pauses_total",
		Help: "Total number of pauses triggered by a low rate budget",
	})

	ratePauseSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stars_rate_limit_pause_seconds",
		Help:    "Duration of rate limit pauses in seconds",
		Buckets: []float64{1, 10, 60, 300, 900, 1800, 3600},
	})
)

// BudgetFromHeaders parses GitHub rate limit headers.
// Returns ok=false when the response carries no X-RateLimit-Remaining header.
func BudgetFromHeaders(headers http.Header) (budget Budget, ok bool, err error) {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return Budget{}, false, nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return Budget{}, false, fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetStr := headers.Get(HeaderReset)
	if resetStr == "" {
		return Budget{}, false, fmt.Errorf("%s header missing", HeaderReset)
	}

	resetEpoch, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		return Budget{}, false, fmt.Errorf("parse %s header: %w", HeaderReset, err)
	}

	budget = Budget{
		Remaining: remain,
		ResetAt:   time.Unix(resetEpoch, 0).UTC(),
	}

	// Limit and Used are informational only.
	if v, err := strconv.Atoi(headers.Get(HeaderLimit)); err == nil {
		budget.Limit = v
	}
	if v, err := strconv.Atoi(headers.Get(HeaderUsed)); err == nil {
		budget.Used = v
	}

	return budget, true, nil
}

// Observe records a budget reading in metrics and logs it at a level that
// reflects how close the budget is to the threshold.
func Observe(logger zerolog.Logger, budget Budget, threshold int) {
	rateRemaining.Set(float64(budget.Remaining))

	event := logger.Debug()
	msg := "Rate budget updated"
	if budget.IsLow(threshold) {
		event = logger.Warn()
		msg = "Rate budget LOW - next request will wait for reset"
	}

	event.
		Int("remaining", budget.Remaining).
		Int("limit", budget.Limit).
		Time("reset_at", budget.ResetAt).
		Msg(msg)
}

// recordPause counts a suspension in metrics.
func recordPause(d time.Duration) {
	ratePausesTotal.Inc()
	ratePauseSeconds.Observe(d.Seconds())
}
