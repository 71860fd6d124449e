// Package retry provides retry functionality with exponential backoff and jitter.
// Designed for short conflict loops (ordinal allocation) and resilient calls
// to external services (badge evaluator).
// No external dependencies - uses only standard library.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Options holds retry configuration.
type Options struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	// Default: 3
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	// Default: 50ms
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries.
	// Default: 5s
	MaxDelay time.Duration

	// Multiplier is the factor by which delay increases after each attempt.
	// Default: 2.0
	Multiplier float64

	// JitterFactor adds randomness to delays (0.0 = no jitter, 1.0 = full jitter).
	// Default: 0.1
	JitterFactor float64

	// RetryIf determines whether an error should be retried.
	// If nil, every non-nil error is retried.
	RetryIf func(error) bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:  3,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = def.MaxAttempts
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = def.InitialDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = def.MaxDelay
	}
	if o.Multiplier < 1 {
		o.Multiplier = def.Multiplier
	}
	if o.JitterFactor < 0 || o.JitterFactor > 1 {
		o.JitterFactor = def.JitterFactor
	}
	return o
}

// Do runs fn up to opts.MaxAttempts times, sleeping between attempts with
// exponential backoff. It stops early when the error is not retryable per
// opts.RetryIf or when the context is done. The last error is returned.
func Do(ctx context.Context, opts Options, fn func() error) error {
	opts = opts.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return errors.Join(lastErr, err)
			}
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if opts.RetryIf != nil && !opts.RetryIf(lastErr) {
			return lastErr
		}
		if attempt == opts.MaxAttempts {
			break
		}

		delay := opts.delayFor(attempt)
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, lastErr, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(lastErr, ctx.Err())
		case <-timer.C:
		}
	}
	return lastErr
}

// delayFor computes the backoff delay for the given attempt (1-based).
func (o Options) delayFor(attempt int) time.Duration {
	backoff := float64(o.InitialDelay) * math.Pow(o.Multiplier, float64(attempt-1))
	if backoff > float64(o.MaxDelay) {
		backoff = float64(o.MaxDelay)
	}
	if o.JitterFactor > 0 {
		jitter := backoff * o.JitterFactor
		backoff = backoff - jitter + rand.Float64()*2*jitter
	}
	return time.Duration(backoff)
}
