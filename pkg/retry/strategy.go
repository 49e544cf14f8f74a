package retry

import (
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/retry/backoff"
)

// Strategy decides whether an action should be retried after its attempt
// failed with err. Strategies may sleep before returning.
type Strategy func(attempts uint, err error) bool

// Limit stops retrying once maxAttempts attempts have been made, including the
// first one.
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only retries errors matching one of retriableErrors.
func RetriableErrors(retriableErrors ...error) Strategy {
	return func(_ uint, err error) bool {
		return matches(err, retriableErrors)
	}
}

// NonRetriableErrors retries every error except the ones matching
// nonRetriableErrors.
func NonRetriableErrors(nonRetriableErrors ...error) Strategy {
	return func(_ uint, err error) bool {
		return !matches(err, nonRetriableErrors)
	}
}

// Backoff sleeps for the strategy's delay, capped at maxBackoff, before every
// retry.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return BackoffWithJitter(strategy, maxBackoff, 0)
}

// BackoffWithJitter is Backoff with the capped delay moved by up to
// +/- jitter of itself. A capped delay of 100ms with a jitter of 0.1 sleeps
// between 90ms and 110ms.
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(attempts uint, _ error) bool {
		sleeperImpl.Sleep(delay(strategy, attempts, maxBackoff, jitter))
		return true
	}
}

// BackoffOn is BackoffWithJitter for errors matching one of errs. Other errors
// are retried without sleeping, so different failures can use different
// schedules.
func BackoffOn(errs []error, strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(attempts uint, err error) bool {
		if matches(err, errs) {
			sleeperImpl.Sleep(delay(strategy, attempts, maxBackoff, jitter))
		}
		return true
	}
}

func delay(strategy backoff.Strategy, attempts uint, maxBackoff time.Duration, jitter float64) time.Duration {
	capped := math.Min(float64(maxBackoff), float64(strategy(attempts)))
	if jitter == 0 {
		return time.Duration(capped)
	}

	return time.Duration(capped * (1 + jitter*(2*rand.Float64()-1)))
}

func matches(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type sleeper interface {
	Sleep(time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

var sleeperImpl sleeper = realSleeper{}
