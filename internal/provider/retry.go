package provider

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// Retry policy shared by all catalog clients: three attempts total,
// exponential wait starting at 2s capped at 10s.
const (
	RetryBase  = 2 * time.Second
	RetryCap   = 10 * time.Second
	maxRetries = 2
)

// RetryTransient runs op, retrying ErrProviderUnavailable with capped
// exponential backoff. Any other error, including context
// cancellation, returns immediately. The base wait is a parameter so
// tests can shrink it.
func RetryTransient(ctx context.Context, base time.Duration, op func(ctx context.Context) error) error {
	b := retry.NewExponential(base)
	b = retry.WithCappedDuration(RetryCap, b)
	b = retry.WithMaxRetries(maxRetries, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := op(ctx)
		var unavailable *ErrProviderUnavailable
		if errors.As(err, &unavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
}
