// Package ratelimit reads GitHub's rate budget from response headers and
// decides when the fetch loop has to pause before its next request.
// It monitors the X-RateLimit-Remaining and X-RateLimit-Reset headers so an
// export run never exhausts the account's request quota.
package ratelimit

import (
	"time"
)

// Header names GitHub uses to report the rate budget.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderUsed      = "X-RateLimit-Used"
	HeaderReset     = "X-RateLimit-Reset"
)

// Thresholds for pause decisions.
const (
	// DefaultThreshold pauses the loop once remaining requests fall to this value.
	DefaultThreshold = 10

	// DefaultFallbackPause is used by PolicyFixed, and by PolicyUntilReset when
	// the reset time is unknown.
	DefaultFallbackPause = 3600 * time.Second
)

// Budget is the rate budget reported with a response. It is read after every
// request and never cached across runs.
type Budget struct {
	// Limit is the total number of requests allowed in the window.
	Limit int `json:"limit"`

	// Remaining is the number of requests left before the window resets.
	Remaining int `json:"remaining"`

	// Used is the number of requests spent in the current window.
	Used int `json:"used"`

	// ResetAt is when the window resets, from X-RateLimit-Reset (epoch seconds).
	ResetAt time.Time `json:"reset_at"`
}

// IsLow reports whether the remaining budget is at or below threshold.
func (b Budget) IsLow(threshold int) bool {
	return b.Remaining <= threshold
}

// TimeUntilReset returns the duration from now until the budget resets.
// Returns 0 if the reset time has already passed.
func (b Budget) TimeUntilReset(now time.Time) time.Duration {
	duration := b.ResetAt.Sub(now)
	if duration < 0 {
		return 0
	}
	return duration
}
