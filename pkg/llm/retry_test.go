package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func fastRetry() RetryPolicy {
	return RetryPolicy{InitialInterval: time.Millisecond, MaxTries: 3}
}

func TestWithRetry_RetriesRateLimit(t *testing.T) {
	calls := 0
	var waits []time.Duration
	policy := fastRetry()
	policy.Notify = func(err error, wait time.Duration) { waits = append(waits, wait) }

	got, err := withRetry(context.Background(), policy, func() (string, error) {
		calls++
		if calls < 3 {
			return "", rateLimited("test", errors.New("429"))
		}
		return "ok", nil
	})

	assert.Equal(t, nil, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, waits)
}

func TestWithRetry_GivesUpAfterMaxTries(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), fastRetry(), func() (string, error) {
		calls++
		return "", rateLimited("test", errors.New("429"))
	})

	assert.Equal(t, true, errors.Is(err, ErrRateLimited))
	assert.Equal(t, 3, calls)
}

func TestWithRetry_OtherErrorsAreNotRetried(t *testing.T) {
	calls := 0
	boom := errors.New("bad request")
	_, err := withRetry(context.Background(), fastRetry(), func() (string, error) {
		calls++
		return "", boom
	})

	assert.Equal(t, true, errors.Is(err, boom))
	assert.Equal(t, 1, calls)
}
