package retry

import (
	"context"
)

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retrier retries the provided action.
type Retrier interface {
	Retry(ctx context.Context, action Action) (uint, error)
}

type retrier struct {
	strategies []Strategy
}

// NewRetrier returns a Retrier that will retry actions based off of the
// provided strategies. If no strategies are provided, the retrier acts
// as a tight-loop, retrying until no error is returned from the action
// or the context is done.
func NewRetrier(strategies ...Strategy) Retrier {
	return &retrier{
		strategies: strategies,
	}
}

func (r *retrier) Retry(ctx context.Context, action Action) (uint, error) {
	return Retry(ctx, action, r.strategies...)
}

// Retry executes the provided action, potentially multiple times based off of
// the provided strategies. Retry will block until the action is successful, one
// of the provided strategies indicate no further retries should be performed,
// or ctx is done. In the latter case the last error of the action is returned.
//
// The strategies are executed in the provided order, so any strategies that
// induce delays should be specified last.
func Retry(ctx context.Context, action Action, strategies ...Strategy) (uint, error) {
	for i := uint(1); ; i++ {
		err := action()
		if err == nil {
			return i, nil
		}

		for _, s := range strategies {
			if shouldRetry := s(i, err); !shouldRetry {
				return i, err
			}
		}

		if ctx.Err() != nil {
			return i, err
		}
	}
}
