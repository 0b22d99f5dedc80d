// Package retryx implements bounded retries with exponential backoff and
// jitter for calls to external services.
package retryx

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

// Policy controls retry behavior.
type Policy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration
	// ShouldRetry decides whether an error is worth retrying.
	// Defaults to Transient when nil.
	ShouldRetry func(error) bool
}

// DefaultPolicy matches the budget used for all external read calls:
// three tries, half-second base delay doubling up to five seconds.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: 500 * time.Millisecond,
		MaxDelay:  5 * time.Second,
	}
}

// Do runs fn, retrying per the policy. The last error is returned once the
// attempt budget is exhausted or the error is classified as non-retryable.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) error) error {
	if policy.Attempts <= 0 {
		policy.Attempts = 1
	}
	shouldRetry := policy.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = Transient
	}

	delay := policy.BaseDelay
	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= policy.Attempts || !shouldRetry(err) {
			return err
		}

		// Full delay plus up to half again as jitter.
		sleep := delay + time.Duration(rand.Int63n(int64(delay/2)+1))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		delay *= 2
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
}

// transientMarkers are substrings that identify likely-temporary upstream
// failures. Matching is case-insensitive over the full error text.
var transientMarkers = []string{
	"rate limit",
	"429",
	"backenderror",
	"backend error",
	"internal error",
	"temporarily unavailable",
	"reset reason",
	"connection reset",
	"status=500",
	"status=502",
	"status=503",
	"status=504",
}

// Transient reports whether err looks like a temporary upstream failure
// worth retrying (rate limiting, backend hiccups, connection resets).
func Transient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
