package common

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryableFunc is the operation to retry. Return nil to stop retrying.
type RetryableFunc func() error

type retryConfig struct {
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
}

// Option configures retry behavior.
type Option func(*retryConfig)

// WithMaxRetries sets how many times the call is retried after the
// first failure. Default is 3.
func WithMaxRetries(n int) Option {
	return func(c *retryConfig) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithInitialDelay sets the delay before the first retry. Each further
// retry doubles the delay. Default is 1 second.
func WithInitialDelay(d time.Duration) Option {
	return func(c *retryConfig) {
		if d > 0 {
			c.initialDelay = d
		}
	}
}

// WithMaxDelay caps the backoff delay. Default is 30 seconds.
func WithMaxDelay(d time.Duration) Option {
	return func(c *retryConfig) {
		if d > 0 {
			c.maxDelay = d
		}
	}
}

// Do runs fn, retrying with doubling backoff until it succeeds, the
// retry budget is exhausted, or ctx is cancelled. The backoff sleep
// itself is interruptible by ctx.
func Do(ctx context.Context, fn RetryableFunc, opts ...Option) error {
	if fn == nil {
		return errors.New("retry: function cannot be nil")
	}

	cfg := &retryConfig{
		maxRetries:   3,
		initialDelay: time.Second,
		maxDelay:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var lastErr error
	delay := cfg.initialDelay

	for attempt := 0; ; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt >= cfg.maxRetries {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted during backoff (attempt %d/%d): %w",
				attempt+1, cfg.maxRetries, ctx.Err())
		case <-timer.C:
		}

		delay *= 2
		if delay > cfg.maxDelay {
			delay = cfg.maxDelay
		}
	}

	return fmt.Errorf("retry failed after %d attempts: %w", cfg.maxRetries+1, lastErr)
}
