package rate

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter limits operations based on a provided key.
type Limiter interface {
	// Allow reports whether an operation may happen now.
	Allow(key string) (bool, error)

	// Wait blocks until an operation may happen, or ctx is done.
	Wait(ctx context.Context, key string) error
}

type localRateLimiter struct {
	limit rate.Limit

	sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewLocalRateLimiter returns an in memory limiter that allows limit
// operations per second for each key, with bursts of up to limit operations.
func NewLocalRateLimiter(limit rate.Limit) Limiter {
	return &localRateLimiter{
		limit:    limit,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *localRateLimiter) get(key string) *rate.Limiter {
	l.Lock()
	defer l.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		burst := int(l.limit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(l.limit, burst)
		l.limiters[key] = limiter
	}
	return limiter
}

// Allow implements limiter.Allow.
func (l *localRateLimiter) Allow(key string) (bool, error) {
	return l.get(key).Allow(), nil
}

// Wait implements limiter.Wait.
func (l *localRateLimiter) Wait(ctx context.Context, key string) error {
	return l.get(key).Wait(ctx)
}

// NoLimiter never limits operations
type NoLimiter struct {
}

// Allow implements limiter.Allow.
func (n *NoLimiter) Allow(key string) (bool, error) {
	return true, nil
}

// Wait implements limiter.Wait.
func (n *NoLimiter) Wait(ctx context.Context, key string) error {
	return ctx.Err()
}
