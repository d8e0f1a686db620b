package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

var ErrRateLimited = errors.New("rate limited")

type RetryPolicy struct {
	InitialInterval time.Duration
	MaxTries        uint
	// Notify is called before each wait.
	Notify func(err error, wait time.Duration)
}

// DefaultRetryPolicy waits 10s then 20s across three attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval: 10 * time.Second,
		MaxTries:        3,
	}
}

func rateLimited(provider string, err error) error {
	return fmt.Errorf("%s: %w: %v", provider, ErrRateLimited, err)
}

// withRetry retries op while it fails with ErrRateLimited. Any other error
// is returned immediately.
func withRetry[T any](ctx context.Context, policy RetryPolicy, op func() (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.InitialInterval
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = policy.InitialInterval << policy.MaxTries

	opts := []backoff.RetryOption{
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(max(policy.MaxTries, 1)),
	}
	if policy.Notify != nil {
		opts = append(opts, backoff.WithNotify(policy.Notify))
	}

	v, err := backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && !errors.Is(err, ErrRateLimited) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, opts...)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	return v, err
}
