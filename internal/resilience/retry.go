// Package resilience provides the retry policy wrapped around every
// network-facing step of the scrape pipeline.
package resilience

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls retry behavior with linear backoff. Linear rather
// than exponential keeps the total wall-clock budget of a scrape job
// predictable: attempt i waits BaseDelay * i before the next try.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts (including the first try).
	// A value of 1 means no retries. Default: 3.
	MaxAttempts int

	// BaseDelay is the unit of linear backoff. After failed attempt i the
	// policy sleeps BaseDelay * i. Default: 2s.
	BaseDelay time.Duration

	// ShouldRetry optionally overrides the default transient-error check.
	// If nil, IsTransient is used. Non-retryable failures (malformed
	// configuration, permanent blocks) are returned immediately.
	ShouldRetry func(err error) bool

	// OnRetry is called before each retry sleep with the attempt number and
	// error. If nil, a warning is logged per failed attempt.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig returns the standard policy for page navigation.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
	}
}

// ExhaustedError reports that every attempt failed. It carries the last
// underlying failure and is never silently swallowed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("exhausted %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Do executes fn under the retry policy. Only errors the classifier deems
// transient are retried; fatal errors return immediately. On exhaustion a
// typed *ExhaustedError wrapping the last failure is returned and logged at
// error level. Context cancellation stops retrying immediately.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for operations that return a value.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = applyDefaults(cfg)

	shouldRetry := cfg.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}
	onRetry := cfg.OnRetry
	if onRetry == nil {
		onRetry = func(attempt int, err error) {
			zap.L().Warn("attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, lastErr
		}
		if !shouldRetry(lastErr) {
			return zero, lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		onRetry(attempt, lastErr)

		timer := time.NewTimer(cfg.BaseDelay * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	exhausted := &ExhaustedError{Attempts: cfg.MaxAttempts, Last: lastErr}
	zap.L().Error("all attempts exhausted",
		zap.Int("attempts", cfg.MaxAttempts),
		zap.Error(lastErr),
	)
	return zero, exhausted
}

func applyDefaults(cfg RetryConfig) RetryConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 2 * time.Second
	}
	return cfg
}
