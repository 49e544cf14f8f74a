// Package backoff provides delay schedules for retry.Backoff.
package backoff

import (
	"math"
	"time"
)

// Strategy returns the delay to wait after the given attempt. Attempts are
// counted from 1.
type Strategy func(attempts uint) time.Duration

// Constant waits the same interval after every attempt.
func Constant(interval time.Duration) Strategy {
	return func(uint) time.Duration {
		return interval
	}
}

// Linear waits baseDelay * attempts.
//
// Linear(2*time.Second) = 2s, 4s, 6s, 8s, ...
func Linear(baseDelay time.Duration) Strategy {
	return func(attempts uint) time.Duration {
		return scale(baseDelay, float64(attempts))
	}
}

// Exponential waits baseDelay * base^(attempts-1).
//
// Exponential(2*time.Second, 3) = 2s, 6s, 18s, 54s, ...
func Exponential(baseDelay time.Duration, base float64) Strategy {
	return func(attempts uint) time.Duration {
		if attempts == 0 {
			return baseDelay
		}
		return scale(baseDelay, math.Pow(base, float64(attempts-1)))
	}
}

// BinaryExponential is Exponential with a base of 2, the schedule the RPC
// client uses between rate limited requests.
func BinaryExponential(baseDelay time.Duration) Strategy {
	return Exponential(baseDelay, 2)
}

// scale multiplies d by factor, saturating at the largest duration instead of
// wrapping around.
func scale(d time.Duration, factor float64) time.Duration {
	v := float64(d) * factor
	if v >= math.MaxInt64 || math.IsInf(v, 0) || math.IsNaN(v) {
		return math.MaxInt64
	}
	return time.Duration(v)
}
