package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(maxAttempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts: maxAttempts,
		BaseDelay:   1 * time.Millisecond,
		OnRetry:     func(int, error) {},
	}
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastConfig(3), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_FailsNMinusOneThenSucceeds(t *testing.T) {
	const n = 4
	var calls int
	err := Do(context.Background(), fastConfig(n), func(_ context.Context) error {
		calls++
		if calls < n {
			return NewTransientError(errors.New("not rendered yet"), 0)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != n {
		t.Errorf("expected exactly %d calls, got %d", n, calls)
	}
}

func TestDo_ExhaustionReturnsTypedError(t *testing.T) {
	var calls int
	last := errors.New("gateway timeout")
	err := Do(context.Background(), fastConfig(3), func(_ context.Context) error {
		calls++
		return NewTransientError(last, 504)
	})
	if calls != 3 {
		t.Errorf("expected exactly 3 calls, got %d", calls)
	}

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %T: %v", err, err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", exhausted.Attempts)
	}
	if !errors.Is(err, last) {
		t.Error("ExhaustedError should carry the last underlying failure")
	}
}

func TestDo_FatalErrorNotRetried(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastConfig(5), func(_ context.Context) error {
		calls++
		return NewFatalError(errors.New("malformed landing url"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call for fatal error, got %d", calls)
	}
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		t.Error("fatal error must not be wrapped as exhaustion")
	}
}

func TestDo_CustomClassifier(t *testing.T) {
	var calls int
	cfg := fastConfig(3)
	cfg.ShouldRetry = func(err error) bool { return err.Error() == "retry me" }

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("retry me")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDo_ContextCancelStopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	cfg := RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   10 * time.Millisecond,
		OnRetry:     func(int, error) {},
	}

	err := Do(ctx, cfg, func(_ context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return NewTransientError(errors.New("fail"), 0)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls > 3 {
		t.Errorf("expected retries to stop after cancel, got %d calls", calls)
	}
}

func TestDoVal_PreservesValue(t *testing.T) {
	var calls int
	val, err := DoVal(context.Background(), fastConfig(3), func(_ context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", NewTransientError(errors.New("timeout"), 408)
		}
		return "page-html", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "page-html" {
		t.Errorf("val = %q", val)
	}
}

func TestDo_LinearBackoffTiming(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   20 * time.Millisecond,
		OnRetry:     func(int, error) {},
	}

	start := time.Now()
	_ = Do(context.Background(), cfg, func(_ context.Context) error {
		return NewTransientError(errors.New("fail"), 0)
	})
	elapsed := time.Since(start)

	// Sleeps are base*1 + base*2 = 60ms.
	if elapsed < 60*time.Millisecond {
		t.Errorf("linear backoff too short: %v", elapsed)
	}
	if elapsed > 300*time.Millisecond {
		t.Errorf("linear backoff too long: %v", elapsed)
	}
}

func TestDo_DefaultsApplied(t *testing.T) {
	cfg := applyDefaults(RetryConfig{})
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts default = %d", cfg.MaxAttempts)
	}
	if cfg.BaseDelay != 2*time.Second {
		t.Errorf("BaseDelay default = %v", cfg.BaseDelay)
	}
}

func TestDo_OnRetryCallbackPerFailedAttempt(t *testing.T) {
	var attempts []int
	cfg := RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Millisecond,
		OnRetry: func(attempt int, _ error) {
			attempts = append(attempts, attempt)
		},
	}

	_ = Do(context.Background(), cfg, func(_ context.Context) error {
		return NewTransientError(errors.New("fail"), 0)
	})

	// No sleep (and no callback) after the final attempt.
	if len(attempts) != 2 {
		t.Fatalf("expected 2 OnRetry calls, got %d", len(attempts))
	}
	if attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected attempts [1 2], got %v", attempts)
	}
}
