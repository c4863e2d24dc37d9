// File: internal/retry/retry.go
package retry

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMaxRetries is the number of retries after the initial attempt.
	DefaultMaxRetries = 2
	// DefaultDelay is the backoff base before the first retry.
	DefaultDelay = 1 * time.Second
	// backoffFactor grows the delay exponentially between retries.
	backoffFactor = 1.5
)

// Options tunes one retried operation.
type Options struct {
	StepName   string
	MaxRetries int
	Delay      time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxRetries == 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.Delay <= 0 {
		o.Delay = DefaultDelay
	}
	return o
}

// backoffDelay computes delay * factor^(retryNum-1) for the 1-based upcoming
// retry. With the defaults the observed waits are 1000ms, then 1500ms.
func backoffDelay(base time.Duration, retryNum int) time.Duration {
	return time.Duration(float64(base) * math.Pow(backoffFactor, float64(retryNum-1)))
}

// WithRetry runs op, retrying retriable failures up to opts.MaxRetries times
// with exponential backoff. It is single-threaded and cooperative: the
// backoff wait is the only suspension point. It returns the number of
// attempts made alongside the final error, so callers can report
// retriesUsed = attempts-1.
//
// A non-retriable failure is re-raised immediately, without waiting. The
// original error is logged exactly once, on final failure.
func WithRetry(ctx context.Context, logger *zap.Logger, opts Options, op func(context.Context) error) (int, error) {
	opts = opts.withDefaults()

	attempt := 0
	for {
		attempt++
		err := op(ctx)
		if err == nil {
			return attempt, nil
		}

		cls := Categorize(err)
		if !cls.Retriable || attempt > opts.MaxRetries {
			logger.Error("Step failed permanently",
				zap.String("step", opts.StepName),
				zap.String("category", cls.Category),
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			return attempt, err
		}

		delay := backoffDelay(opts.Delay, attempt)
		logger.Warn("Step failed, retrying",
			zap.String("step", opts.StepName),
			zap.String("category", cls.Category),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			// The current attempt already completed; honor cancellation at
			// the checkpoint instead of starting another attempt.
			return attempt, ctx.Err()
		}
	}
}

// Do is the result-carrying variant of WithRetry.
func Do[T any](ctx context.Context, logger *zap.Logger, opts Options, op func(context.Context) (T, error)) (T, int, error) {
	var out T
	attempts, err := WithRetry(ctx, logger, opts, func(c context.Context) error {
		var opErr error
		out, opErr = op(c)
		return opErr
	})
	return out, attempts, err
}
