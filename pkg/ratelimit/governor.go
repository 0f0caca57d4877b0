package ratelimit

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Policy selects how long the governor pauses once the budget is low.
type Policy string

const (
	// PolicyUntilReset waits exactly until the budget's reset time.
	PolicyUntilReset Policy = "reset"

	// PolicyFixed always waits FallbackPause.
	PolicyFixed Policy = "fixed"
)

// ParsePolicy converts a config string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyUntilReset, "":
		return PolicyUntilReset, nil
	case PolicyFixed:
		return PolicyFixed, nil
	default:
		return "", fmt.Errorf("unknown pause policy %q (want %q or %q)", s, PolicyUntilReset, PolicyFixed)
	}
}

// Governor decides whether the fetch loop pauses before its next request.
type Governor struct {
	Threshold     int
	Policy        Policy
	FallbackPause time.Duration
	Clock         Clock
}

// NewGovernor returns a governor with the default threshold, the
// until-reset policy and the system clock.
func NewGovernor() *Governor {
	return &Governor{
		Threshold:     DefaultThreshold,
		Policy:        PolicyUntilReset,
		FallbackPause: DefaultFallbackPause,
		Clock:         SystemClock{},
	}
}

// ShouldPause returns the wait duration and true when remaining is at or below
// the threshold. Under PolicyUntilReset the wait is resetAt minus now, clamped
// to zero; a zero resetAt falls back to FallbackPause.
func (g *Governor) ShouldPause(remaining int, resetAt time.Time) (time.Duration, bool) {
	if remaining > g.Threshold {
		return 0, false
	}

	var wait time.Duration
	switch {
	case g.Policy == PolicyFixed, resetAt.IsZero():
		wait = g.FallbackPause
	default:
		wait = Budget{ResetAt: resetAt}.TimeUntilReset(g.clock().Now())
	}

	return wait, true
}

// Wait suspends for d on the governor's clock and counts the pause.
// It returns early with ctx's error when ctx is cancelled.
func (g *Governor) Wait(ctx context.Context, d time.Duration) error {
	recordPause(d)
	return g.clock().Sleep(ctx, d)
}

func (g *Governor) clock() Clock {
	if g.Clock == nil {
		return SystemClock{}
	}
	return g.Clock
}

// Jitter is the optional courtesy delay inserted between page fetches.
// The zero value is disabled.
type Jitter struct {
	Min time.Duration
	Max time.Duration
}

// DefaultJitter spaces pages 1 to 11 seconds apart.
func DefaultJitter() Jitter {
	return Jitter{Min: 1 * time.Second, Max: 11 * time.Second}
}

// Enabled reports whether any delay will be produced.
func (j Jitter) Enabled() bool {
	return j.Max > 0 && j.Max >= j.Min
}

// Next returns a random delay in [Min, Max].
func (j Jitter) Next() time.Duration {
	if !j.Enabled() {
		return 0
	}
	span := int64(j.Max - j.Min)
	if span <= 0 {
		return j.Min
	}
	return j.Min + time.Duration(rand.Int63n(span+1))
}
