package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), DefaultRetryConfig(), func() (string, error) {
		calls++
		return "ok", nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "ok" || calls != 1 {
		t.Errorf("expected one successful call, got result=%q calls=%d", result, calls)
	}
}

func TestRetry_RetriesUntilSuccess(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond}
	calls := 0
	result, err := Retry(context.Background(), cfg, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})

	if err != nil {
		t.Errorf("expected success, got %v", err)
	}
	if result != 42 || calls != 3 {
		t.Errorf("expected 42 after 3 calls, got result=%d calls=%d", result, calls)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond}
	lastErr := errors.New("persistent")
	calls := 0

	_, err := Retry(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, lastErr
	})

	if !errors.Is(err, lastErr) {
		t.Errorf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", calls)
	}
}

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: time.Millisecond,
		RetryIf:        func(err error) bool { return false },
	}
	calls := 0

	_, err := Retry(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, errors.New("terminal")
	})

	if err == nil {
		t.Error("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt for non-retryable error, got %d", calls)
	}
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxAttempts: 10, InitialBackoff: 50 * time.Millisecond}
	calls := 0

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Retry(ctx, cfg, func() (int, error) {
		calls++
		return 0, errors.New("fail")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls >= 10 {
		t.Errorf("expected cancellation to stop retries, got %d calls", calls)
	}
}

func TestRetry_OnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			attempts = append(attempts, attempt)
		},
	}

	_ = RetryFunc(context.Background(), cfg, func() error {
		return errors.New("fail")
	})

	if len(attempts) != 2 {
		t.Fatalf("expected 2 retry callbacks, got %d", len(attempts))
	}
	if attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("unexpected attempt numbers: %v", attempts)
	}
}

func TestCalculateBackoff_Exponential(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
	}

	b1 := calculateBackoff(1, cfg)
	b2 := calculateBackoff(2, cfg)
	b3 := calculateBackoff(3, cfg)

	if b1 != 100*time.Millisecond {
		t.Errorf("expected 100ms for attempt 1, got %v", b1)
	}
	if b2 != 200*time.Millisecond {
		t.Errorf("expected 200ms for attempt 2, got %v", b2)
	}
	if b3 != 400*time.Millisecond {
		t.Errorf("expected 400ms for attempt 3, got %v", b3)
	}
}

func TestCalculateBackoff_CapsAtMax(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: time.Second,
		MaxBackoff:     2 * time.Second,
		BackoffFactor:  10.0,
	}

	if got := calculateBackoff(5, cfg); got != 2*time.Second {
		t.Errorf("expected cap at 2s, got %v", got)
	}
}
